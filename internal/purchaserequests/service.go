package purchaserequests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/internal/inventory"
	"github.com/muniworks/maintenance-backend/internal/maintenance"
	"github.com/muniworks/maintenance-backend/internal/materialrequests"
	"github.com/muniworks/maintenance-backend/internal/notifications"
	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
	"github.com/muniworks/maintenance-backend/pkg/outbox"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventorySource interface {
	GetItemForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.InventoryItem, error)
	Apply(ctx context.Context, tx *gorm.DB, input inventory.ApplyInput) (*models.InventoryTransaction, *inventory.LowStockAlert, error)
}

type materialBackfiller interface {
	FulfillFromPurchase(ctx context.Context, tx *gorm.DB, materialRequestID uuid.UUID, itemCodes []string) error
}

type completionNotifier interface {
	PurchaseCompleted(ctx context.Context, tx *gorm.DB, input notifications.PurchaseCompletedInput) error
}

// Service defines the purchase request workflow operations.
type Service interface {
	materialrequests.PurchaseCreator
	Create(ctx context.Context, input CreateInput) (*models.PurchaseRequest, error)
	Approve(ctx context.Context, id uuid.UUID, input ApproveInput) (*models.PurchaseRequest, error)
	MarkOrdered(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error)
	MarkReadyToDeliver(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error)
	Complete(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error)
	Receive(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error)
	Deliver(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	inv       inventorySource
	materials materialBackfiller
	schedules maintenance.Repository
	cascade   *maintenance.Cascade
	notifier  completionNotifier
	logg      *logger.Logger
}

// PurchaseLine is one requested procurement line.
type PurchaseLine struct {
	ItemCode string
	Quantity int
	UnitCost decimal.Decimal
}

// CreateInput carries a direct purchase request.
type CreateInput struct {
	MaintenanceScheduleID *uuid.UUID
	MaterialRequestID     *uuid.UUID
	Items                 []PurchaseLine
	SupplierName          *string
	SupplierContact       *string
	Notes                 *string
	RequestedBy           uuid.UUID
}

// ApproveInput carries a supervisor's approval decision.
type ApproveInput struct {
	Approve         bool
	RejectionReason *string
	UserID          uuid.UUID
}

// ListParams configures pagination and filters for purchase requests.
type ListParams struct {
	Limit      int
	Cursor     string
	ScheduleID *uuid.UUID
	Status     *enums.PurchaseRequestStatus
}

// ListResult wraps a page of requests and the cursor for the next page.
type ListResult struct {
	Items  []models.PurchaseRequest `json:"items"`
	Cursor string                   `json:"cursor"`
}

// NewService wires the purchase request workflow with its dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	inv inventorySource,
	materials materialBackfiller,
	schedules maintenance.Repository,
	cascade *maintenance.Cascade,
	notifier completionNotifier,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase request repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory source required")
	}
	if materials == nil {
		return nil, fmt.Errorf("material backfiller required")
	}
	if schedules == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	if cascade == nil {
		return nil, fmt.Errorf("maintenance cascade required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("completion notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inv:       inv,
		materials: materials,
		schedules: schedules,
		cascade:   cascade,
		notifier:  notifier,
		logg:      logg,
	}, nil
}

// Create registers a direct purchase request outside the material request split.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseRequest, error) {
	if input.RequestedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, line := range input.Items {
		if line.ItemCode == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required on every line")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be positive for %s", line.ItemCode))
		}
		if line.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unit cost must be non-negative for %s", line.ItemCode))
		}
	}

	var request *models.PurchaseRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.MaintenanceScheduleID != nil {
			if _, err := s.schedules.WithTx(tx).FindSchedule(ctx, *input.MaintenanceScheduleID); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "maintenance schedule not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load maintenance schedule")
			}
		}

		items := make([]models.PurchaseRequestItem, 0, len(input.Items))
		total := decimal.Zero
		for _, line := range input.Items {
			if _, err := s.inv.GetItemForUpdate(ctx, tx, line.ItemCode); err != nil {
				return err
			}
			lineTotal := line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.PurchaseRequestItem{
				InventoryItemCode: line.ItemCode,
				RequestedQuantity: line.Quantity,
				UnitCost:          line.UnitCost,
				TotalCost:         lineTotal,
			})
			total = total.Add(lineTotal)
		}

		request = &models.PurchaseRequest{
			MaintenanceScheduleID: input.MaintenanceScheduleID,
			MaterialRequestID:     input.MaterialRequestID,
			Status:                enums.PurchaseRequestStatusPending,
			SupplierName:          input.SupplierName,
			SupplierContact:       input.SupplierContact,
			Notes:                 input.Notes,
			TotalCost:             total,
			RequestedBy:           input.RequestedBy,
			Items:                 items,
		}
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// CreateForShortfall persists the purchase half of a material request split
// inside the split's transaction.
func (s *service) CreateForShortfall(ctx context.Context, tx *gorm.DB, input materialrequests.ShortfallInput) (*models.PurchaseRequest, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shortfall items required")
	}

	items := make([]models.PurchaseRequestItem, 0, len(input.Items))
	total := decimal.Zero
	for _, line := range input.Items {
		lineTotal := line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.PurchaseRequestItem{
			InventoryItemCode: line.ItemCode,
			RequestedQuantity: line.Quantity,
			UnitCost:          line.UnitCost,
			TotalCost:         lineTotal,
		})
		total = total.Add(lineTotal)
	}

	scheduleID := input.MaintenanceScheduleID
	request := &models.PurchaseRequest{
		MaintenanceScheduleID: &scheduleID,
		MaterialRequestID:     input.MaterialRequestID,
		Status:                enums.PurchaseRequestStatusPending,
		Notes:                 input.Notes,
		TotalCost:             total,
		RequestedBy:           input.RequestedBy,
		Items:                 items,
	}
	if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shortfall purchase request")
	}
	return request, nil
}

// Approve moves a pending request to approved or rejected.
func (s *service) Approve(ctx context.Context, id uuid.UUID, input ApproveInput) (*models.PurchaseRequest, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.transition(ctx, id, func(request *models.PurchaseRequest) (map[string]any, error) {
		if request.Status.Normalize() != enums.PurchaseRequestStatusPending {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("purchase request is %s", request.Status.Normalize()))
		}
		now := time.Now().UTC()
		if !input.Approve {
			return map[string]any{
				"status":           enums.PurchaseRequestStatusRejected,
				"approved_by":      input.UserID,
				"approved_at":      now,
				"rejection_reason": input.RejectionReason,
			}, nil
		}
		return map[string]any{
			"status":      enums.PurchaseRequestStatusApproved,
			"approved_by": input.UserID,
			"approved_at": now,
		}, nil
	})
}

// MarkOrdered stamps ordered_at; the status stays approved because
// ordered-ness is a sub-state, surfaced through Stage().
func (s *service) MarkOrdered(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.transition(ctx, id, func(request *models.PurchaseRequest) (map[string]any, error) {
		if request.Status.Normalize() != enums.PurchaseRequestStatusApproved {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("purchase request is %s", request.Status.Normalize()))
		}
		if request.OrderedAt != nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase request is already ordered")
		}
		return map[string]any{"ordered_at": time.Now().UTC()}, nil
	})
}

// MarkReadyToDeliver moves an approved request to ready_to_deliver.
func (s *service) MarkReadyToDeliver(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.transition(ctx, id, func(request *models.PurchaseRequest) (map[string]any, error) {
		if request.Status.Normalize() != enums.PurchaseRequestStatusApproved {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("purchase request is %s", request.Status.Normalize()))
		}
		now := time.Now().UTC()
		return map[string]any{
			"status":              enums.PurchaseRequestStatusReadyToDeliver,
			"ready_to_deliver_by": userID,
			"ready_to_deliver_at": now,
		}, nil
	})
}

// Complete books the purchased materials into stock.
func (s *service) Complete(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
	return s.complete(ctx, id, userID, false)
}

// Receive is the backward-compatible completion path that also accepts
// approved requests that never went through ready_to_deliver.
func (s *service) Receive(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
	return s.complete(ctx, id, userID, true)
}

func (s *service) complete(ctx context.Context, id, userID uuid.UUID, allowApproved bool) (*models.PurchaseRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase request id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.PurchaseRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase request")
		}

		status := request.Status.Normalize()
		allowed := status == enums.PurchaseRequestStatusReadyToDeliver ||
			(allowApproved && status == enums.PurchaseRequestStatusApproved)
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("purchase request is %s", status))
		}

		reference := "purchase:" + request.ID.String()
		itemCodes := make([]string, 0, len(request.Items))
		for _, item := range request.Items {
			if _, _, err := s.inv.Apply(ctx, tx, inventory.ApplyInput{
				ItemCode:  item.InventoryItemCode,
				Type:      enums.TransactionTypePurchase,
				Quantity:  item.RequestedQuantity,
				UserID:    userID,
				Reference: &reference,
			}); err != nil {
				return err
			}
			itemCodes = append(itemCodes, item.InventoryItemCode)
		}

		now := time.Now().UTC()
		if err := repo.UpdateRequest(ctx, id, map[string]any{
			"status":       enums.PurchaseRequestStatusCompleted,
			"completed_by": userID,
			"completed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete purchase request")
		}

		if request.MaterialRequestID != nil {
			if err := s.materials.FulfillFromPurchase(ctx, tx, *request.MaterialRequestID, itemCodes); err != nil {
				return err
			}
		}

		if err := s.notifier.PurchaseCompleted(ctx, tx, notifications.PurchaseCompletedInput{
			PurchaseRequestID:     request.ID,
			MaintenanceScheduleID: request.MaintenanceScheduleID,
			MaterialRequestID:     request.MaterialRequestID,
			TotalCost:             request.TotalCost,
			ItemCount:             len(request.Items),
			CompletedAt:           now,
			Actor:                 &outbox.ActorRef{UserID: userID},
		}); err != nil {
			return err
		}

		if request.MaintenanceScheduleID != nil {
			if err := s.cascade.Recalculate(ctx, tx, *request.MaintenanceScheduleID); err != nil {
				return err
			}
		}

		updated, err = repo.Find(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchase request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	normalizeRequest(updated)
	return updated, nil
}

// Deliver confirms the completed purchase physically reached its destination.
func (s *service) Deliver(ctx context.Context, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.transition(ctx, id, func(request *models.PurchaseRequest) (map[string]any, error) {
		if request.Status.Normalize() != enums.PurchaseRequestStatusCompleted {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("purchase request is %s", request.Status.Normalize()))
		}
		now := time.Now().UTC()
		return map[string]any{
			"status":       enums.PurchaseRequestStatusDelivered,
			"delivered_by": userID,
			"delivered_at": now,
		}, nil
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase request id required")
	}
	request, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase request")
	}
	normalizeRequest(request)
	return request, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listRequestsParams{
		Limit:      params.Limit,
		ScheduleID: params.ScheduleID,
		Status:     params.Status,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase requests")
	}
	for i := range rows {
		normalizeRequest(&rows[i])
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// transition runs a guarded status write plus the cascade in one transaction.
func (s *service) transition(ctx context.Context, id uuid.UUID, decide func(*models.PurchaseRequest) (map[string]any, error)) (*models.PurchaseRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase request id required")
	}

	var updated *models.PurchaseRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase request")
		}

		updates, err := decide(request)
		if err != nil {
			return err
		}
		if err := repo.UpdateRequest(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase request")
		}

		if request.MaintenanceScheduleID != nil {
			if err := s.cascade.Recalculate(ctx, tx, *request.MaintenanceScheduleID); err != nil {
				return err
			}
		}

		updated, err = repo.Find(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchase request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	normalizeRequest(updated)
	return updated, nil
}

func normalizeRequest(request *models.PurchaseRequest) {
	if request == nil {
		return
	}
	request.Status = request.Status.Normalize()
}
