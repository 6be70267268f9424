package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
)

// Cascade recalculates a schedule's derived status after a request
// transition. It always runs inside the caller's transaction so the
// derived status commits or rolls back with the triggering write.
type Cascade struct {
	repo Repository
	logg *logger.Logger
}

// NewCascade wires the cascade with its dependencies.
func NewCascade(repo Repository, logg *logger.Logger) (*Cascade, error) {
	if repo == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Cascade{repo: repo, logg: logg}, nil
}

// Recalculate derives and persists the schedule status from the current set
// of linked requests. Safe to call redundantly within one batch.
func (c *Cascade) Recalculate(ctx context.Context, tx *gorm.DB, scheduleID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if scheduleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "schedule id required")
	}

	repo := c.repo.WithTx(tx)

	schedule, err := repo.FindScheduleForUpdate(ctx, scheduleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "maintenance schedule not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock maintenance schedule")
	}

	materials, err := repo.MaterialRequestStatuses(ctx, scheduleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material request statuses")
	}
	purchases, err := repo.PurchaseRequestStatuses(ctx, scheduleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase request statuses")
	}

	outcome := ComputeStatus(schedule.Status, schedule.StartedAt, materials, purchases)
	if !outcome.Changed {
		return nil
	}

	var startedAt *time.Time
	if outcome.SetStartedAt {
		now := time.Now().UTC()
		startedAt = &now
	}
	if err := repo.UpdateScheduleStatus(ctx, scheduleID, outcome.Status, startedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update schedule status")
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"schedule_id": scheduleID.String(),
		"status":      outcome.Status,
	})
	c.logg.Info(logCtx, "maintenance schedule status recalculated")
	return nil
}
