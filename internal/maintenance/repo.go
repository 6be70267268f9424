package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// Repository exposes the schedule reads and the single status write the
// cascade is allowed to make.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSchedule(ctx context.Context, id uuid.UUID) (*models.MaintenanceSchedule, error)
	FindScheduleForUpdate(ctx context.Context, id uuid.UUID) (*models.MaintenanceSchedule, error)
	MaterialRequestStatuses(ctx context.Context, scheduleID uuid.UUID) ([]enums.MaterialRequestStatus, error)
	PurchaseRequestStatuses(ctx context.Context, scheduleID uuid.UUID) ([]enums.PurchaseRequestStatus, error)
	UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status enums.MaintenanceStatus, startedAt *time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a maintenance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindSchedule(ctx context.Context, id uuid.UUID) (*models.MaintenanceSchedule, error) {
	var schedule models.MaintenanceSchedule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindScheduleForUpdate locks the schedule row so concurrent cascade runs
// against the same schedule serialize.
func (r *repositoryImpl) FindScheduleForUpdate(ctx context.Context, id uuid.UUID) (*models.MaintenanceSchedule, error) {
	var schedule models.MaintenanceSchedule
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *repositoryImpl) MaterialRequestStatuses(ctx context.Context, scheduleID uuid.UUID) ([]enums.MaterialRequestStatus, error) {
	var statuses []enums.MaterialRequestStatus
	err := r.db.WithContext(ctx).
		Model(&models.MaterialRequest{}).
		Where("maintenance_schedule_id = ?", scheduleID).
		Pluck("status", &statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repositoryImpl) PurchaseRequestStatuses(ctx context.Context, scheduleID uuid.UUID) ([]enums.PurchaseRequestStatus, error) {
	var statuses []enums.PurchaseRequestStatus
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseRequest{}).
		Where("maintenance_schedule_id = ?", scheduleID).
		Pluck("status", &statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repositoryImpl) UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status enums.MaintenanceStatus, startedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if startedAt != nil {
		updates["started_at"] = *startedAt
	}
	return r.db.WithContext(ctx).
		Model(&models.MaintenanceSchedule{}).
		Where("id = ?", id).
		Updates(updates).Error
}
