package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/internal/inventory"
	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/outbox"
	"github.com/muniworks/maintenance-backend/pkg/outbox/payloads"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service persists in-app notifications and queues their outbox events.
type Service interface {
	LowStock(ctx context.Context, alert inventory.LowStockAlert) error
	PurchaseCompleted(ctx context.Context, tx *gorm.DB, input PurchaseCompletedInput) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	emitter outboxEmitter
}

// PurchaseCompletedInput describes a purchase whose materials arrived in stock.
type PurchaseCompletedInput struct {
	PurchaseRequestID     uuid.UUID
	MaintenanceScheduleID *uuid.UUID
	MaterialRequestID     *uuid.UUID
	TotalCost             decimal.Decimal
	ItemCount             int
	CompletedAt           time.Time
	Actor                 *outbox.ActorRef
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, tx txRunner, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, emitter: emitter}, nil
}

// LowStock records a threshold-crossing alert in its own transaction so it can
// run after the ledger write has committed.
func (s *service) LowStock(ctx context.Context, alert inventory.LowStockAlert) error {
	if alert.ItemCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}

	reference := alert.ItemCode
	row := &models.Notification{
		Kind:      enums.NotificationKindLowStock,
		Title:     "Low stock: " + alert.ItemName,
		Message:   fmt.Sprintf("%s is down to %d (minimum %d)", alert.ItemCode, alert.CurrentStock, alert.MinimumThreshold),
		Reference: &reference,
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create low stock notification")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   itemAggregateID(alert.ItemCode),
			Data: payloads.InventoryLowStockEvent{
				ItemCode:         alert.ItemCode,
				ItemName:         alert.ItemName,
				CurrentStock:     alert.CurrentStock,
				MinimumThreshold: alert.MinimumThreshold,
			},
			Version: 1,
		}
		if err := s.emitter.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue low stock event")
		}
		return nil
	})
}

// PurchaseCompleted records the arrival notification inside the caller's
// transaction so it commits or rolls back with the purchase completion.
func (s *service) PurchaseCompleted(ctx context.Context, tx *gorm.DB, input PurchaseCompletedInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if input.PurchaseRequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase request id required")
	}
	if input.CompletedAt.IsZero() {
		input.CompletedAt = time.Now().UTC()
	}

	reference := "purchase:" + input.PurchaseRequestID.String()
	row := &models.Notification{
		Kind:      enums.NotificationKindPurchaseCompleted,
		Title:     "Purchase request completed",
		Message:   fmt.Sprintf("%d item(s) arrived in stock, total cost %s", input.ItemCount, input.TotalCost.StringFixed(2)),
		Reference: &reference,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase completed notification")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventPurchaseRequestCompleted,
		AggregateType: enums.AggregatePurchaseRequest,
		AggregateID:   input.PurchaseRequestID,
		Actor:         input.Actor,
		Data: payloads.PurchaseRequestCompletedEvent{
			PurchaseRequestID:     input.PurchaseRequestID,
			MaintenanceScheduleID: input.MaintenanceScheduleID,
			MaterialRequestID:     input.MaterialRequestID,
			TotalCost:             input.TotalCost,
			ItemCount:             input.ItemCount,
			CompletedAt:           input.CompletedAt,
		},
		Version:    1,
		OccurredAt: input.CompletedAt,
	}
	if err := s.emitter.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue purchase completed event")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// itemAggregateID derives a stable UUID for an item code so ledger alerts can
// share the uuid-typed aggregate_id column.
func itemAggregateID(code string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("inventory_item:"+code))
}
