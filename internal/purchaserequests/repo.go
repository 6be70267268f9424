package purchaserequests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

// Repository exposes persistence helpers for purchase requests and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.PurchaseRequest) error
	Find(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error)
	List(ctx context.Context, params listRequestsParams) ([]models.PurchaseRequest, *pagination.Cursor, error)
	UpdateRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a purchase request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listRequestsParams struct {
	Limit      int
	Cursor     *pagination.Cursor
	ScheduleID *uuid.UUID
	Status     *enums.PurchaseRequestStatus
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, request *models.PurchaseRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repositoryImpl) Find(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindForUpdate locks the request row; items are loaded afterwards because
// FOR UPDATE cannot span the joined preload.
func (r *repositoryImpl) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&request).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("purchase_request_id = ?", id).
		Find(&request.Items).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listRequestsParams) ([]models.PurchaseRequest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.PurchaseRequest{}).Preload("Items")
	if params.ScheduleID != nil {
		query = query.Where("maintenance_schedule_id = ?", *params.ScheduleID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var requests []models.PurchaseRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	if len(requests) > normalized {
		requests = requests[:normalized]
		last := requests[len(requests)-1]
		return requests, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return requests, nil, nil
}

func (r *repositoryImpl) UpdateRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.PurchaseRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}
