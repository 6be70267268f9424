package materialrequests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/internal/inventory"
	"github.com/muniworks/maintenance-backend/internal/maintenance"
	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventorySource interface {
	GetItemForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.InventoryItem, error)
	Apply(ctx context.Context, tx *gorm.DB, input inventory.ApplyInput) (*models.InventoryTransaction, *inventory.LowStockAlert, error)
	EmitLowStock(ctx context.Context, alerts ...*inventory.LowStockAlert)
}

// ShortfallItem is one procurement line of a stock shortfall.
type ShortfallItem struct {
	ItemCode string
	Quantity int
	UnitCost decimal.Decimal
}

// ShortfallInput asks the purchase workflow to procure what stock could not cover.
type ShortfallInput struct {
	MaintenanceScheduleID uuid.UUID
	MaterialRequestID     *uuid.UUID
	RequestedBy           uuid.UUID
	Notes                 *string
	Items                 []ShortfallItem
}

// PurchaseCreator persists the sibling purchase request inside the caller's
// transaction. Implemented by the purchase request workflow.
type PurchaseCreator interface {
	CreateForShortfall(ctx context.Context, tx *gorm.DB, input ShortfallInput) (*models.PurchaseRequest, error)
}

// Outcome tags what a create call produced, so callers never have to infer
// it from nil checks.
type Outcome string

const (
	OutcomeMaterialOnly Outcome = "material_only"
	OutcomePurchaseOnly Outcome = "purchase_only"
	OutcomeBoth         Outcome = "both"
)

// Service defines the material request workflow operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Approve(ctx context.Context, id uuid.UUID, input ApproveInput) (*models.MaterialRequest, error)
	Receive(ctx context.Context, id uuid.UUID, input ReceiveInput) (*models.MaterialRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MaterialRequest, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	FulfillFromPurchase(ctx context.Context, tx *gorm.DB, materialRequestID uuid.UUID, itemCodes []string) error
}

type service struct {
	repo      Repository
	tx        txRunner
	inv       inventorySource
	purchases PurchaseCreator
	schedules maintenance.Repository
	cascade   *maintenance.Cascade
	logg      *logger.Logger
}

// RequestedItem is one requested line before the usage/purchase split.
type RequestedItem struct {
	ItemCode string
	Quantity int
}

// CreateInput carries a new material demand against a schedule.
type CreateInput struct {
	MaintenanceScheduleID uuid.UUID
	Items                 []RequestedItem
	Notes                 *string
	RequestedBy           uuid.UUID
}

// CreateResult reports the request(s) the split produced.
type CreateResult struct {
	Outcome         Outcome                 `json:"outcome"`
	MaterialRequest *models.MaterialRequest `json:"materialRequest,omitempty"`
	PurchaseRequest *models.PurchaseRequest `json:"purchaseRequest,omitempty"`
}

// ApproveInput carries a supervisor's approval decision.
type ApproveInput struct {
	Approve         bool
	RejectionReason *string
	UserID          uuid.UUID
}

// ReceiveInput confirms physical delivery of approved materials.
type ReceiveInput struct {
	Notes  *string
	UserID uuid.UUID
}

// ListParams configures pagination and filters for material requests.
type ListParams struct {
	Limit      int
	Cursor     string
	ScheduleID *uuid.UUID
	Status     *enums.MaterialRequestStatus
}

// ListResult wraps a page of requests and the cursor for the next page.
type ListResult struct {
	Items  []models.MaterialRequest `json:"items"`
	Cursor string                   `json:"cursor"`
}

// NewService wires the material request workflow with its dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	inv inventorySource,
	purchases PurchaseCreator,
	schedules maintenance.Repository,
	cascade *maintenance.Cascade,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("material request repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory source required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase creator required")
	}
	if schedules == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	if cascade == nil {
		return nil, fmt.Errorf("maintenance cascade required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inv:       inv,
		purchases: purchases,
		schedules: schedules,
		cascade:   cascade,
		logg:      logg,
	}, nil
}

// Create splits the requested quantities into a usage portion satisfiable
// from stock and a purchase shortfall, then commits the plan atomically.
func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if input.MaintenanceScheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maintenance schedule id required")
	}
	if input.RequestedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	anyPositive := false
	for _, line := range input.Items {
		if line.ItemCode == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required on every line")
		}
		if line.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("negative quantity for %s", line.ItemCode))
		}
		if line.Quantity > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one positive quantity required")
	}

	result := &CreateResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.schedules.WithTx(tx).FindSchedule(ctx, input.MaintenanceScheduleID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "maintenance schedule not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load maintenance schedule")
		}

		var usageItems []models.MaterialRequestItem
		var shortfall []ShortfallItem
		for _, line := range input.Items {
			if line.Quantity == 0 {
				continue
			}
			item, err := s.inv.GetItemForUpdate(ctx, tx, line.ItemCode)
			if err != nil {
				return err
			}

			usage := line.Quantity
			if usage > item.CurrentStock {
				usage = item.CurrentStock
			}
			if usage > 0 {
				usageItems = append(usageItems, models.MaterialRequestItem{
					InventoryItemCode: item.Code,
					RequestedQuantity: usage,
					AvailableQuantity: item.CurrentStock,
					RequestType:       enums.MaterialRequestTypeUsage,
					Status:            enums.MaterialRequestItemStatusPending,
				})
			}
			if short := line.Quantity - item.CurrentStock; short > 0 {
				unitCost := decimal.Zero
				if item.UnitCost != nil {
					unitCost = *item.UnitCost
				}
				shortfall = append(shortfall, ShortfallItem{
					ItemCode: item.Code,
					Quantity: short,
					UnitCost: unitCost,
				})
			}
		}

		if len(usageItems) > 0 {
			request := &models.MaterialRequest{
				MaintenanceScheduleID: input.MaintenanceScheduleID,
				Status:                enums.MaterialRequestStatusPending,
				Notes:                 input.Notes,
				RequestedBy:           input.RequestedBy,
				Items:                 usageItems,
			}
			if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material request")
			}
			result.MaterialRequest = request
		}

		if len(shortfall) > 0 {
			shortfallInput := ShortfallInput{
				MaintenanceScheduleID: input.MaintenanceScheduleID,
				RequestedBy:           input.RequestedBy,
				Notes:                 input.Notes,
				Items:                 shortfall,
			}
			if result.MaterialRequest != nil {
				shortfallInput.MaterialRequestID = &result.MaterialRequest.ID
			}
			purchase, err := s.purchases.CreateForShortfall(ctx, tx, shortfallInput)
			if err != nil {
				return err
			}
			result.PurchaseRequest = purchase
		}

		switch {
		case result.MaterialRequest != nil && result.PurchaseRequest != nil:
			result.Outcome = OutcomeBoth
		case result.MaterialRequest != nil:
			result.Outcome = OutcomeMaterialOnly
		default:
			result.Outcome = OutcomePurchaseOnly
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Approve deducts stock for every usage line, or rejects the request. The
// multi-item deduction is atomic: one insufficient line rolls back them all.
func (s *service) Approve(ctx context.Context, id uuid.UUID, input ApproveInput) (*models.MaterialRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material request id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var alerts []*inventory.LowStockAlert
	var updated *models.MaterialRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock material request")
		}

		status := request.Status.Normalize()
		legacyApproved := status == enums.MaterialRequestStatusAwaitingDelivery &&
			request.Status != enums.MaterialRequestStatusAwaitingDelivery

		switch {
		case input.Approve && legacyApproved:
			// Stock was already deducted by the release that wrote the legacy
			// value; only the stored status moves forward.
			if err := repo.UpdateRequest(ctx, id, map[string]any{
				"status": enums.MaterialRequestStatusAwaitingDelivery,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fast-forward material request")
			}
		case status != enums.MaterialRequestStatusPending:
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("material request is %s", status))
		case !input.Approve:
			now := time.Now().UTC()
			if err := repo.UpdateRequest(ctx, id, map[string]any{
				"status":           enums.MaterialRequestStatusRejected,
				"approved_by":      input.UserID,
				"approved_at":      now,
				"rejection_reason": input.RejectionReason,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject material request")
			}
			if err := repo.UpdateAllItemStatuses(ctx, id, enums.MaterialRequestItemStatusRejected); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject material request items")
			}
		default:
			reference := request.MaintenanceScheduleID.String()
			for _, item := range request.Items {
				_, alert, err := s.inv.Apply(ctx, tx, inventory.ApplyInput{
					ItemCode:  item.InventoryItemCode,
					Type:      enums.TransactionTypeUsage,
					Quantity:  item.RequestedQuantity,
					UserID:    input.UserID,
					Reference: &reference,
				})
				if err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
						return pkgerrors.New(pkgerrors.CodeInsufficientStock,
							fmt.Sprintf("approval aborted: insufficient stock for %s", item.InventoryItemCode)).
							WithDetails(pkgerrors.As(err).Details())
					}
					return err
				}
				if alert != nil {
					alerts = append(alerts, alert)
				}
				if err := repo.MarkItemFulfilled(ctx, item.ID, item.RequestedQuantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfill material request item")
				}
			}
			now := time.Now().UTC()
			if err := repo.UpdateRequest(ctx, id, map[string]any{
				"status":      enums.MaterialRequestStatusAwaitingDelivery,
				"approved_by": input.UserID,
				"approved_at": now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve material request")
			}
		}

		if err := s.cascade.Recalculate(ctx, tx, request.MaintenanceScheduleID); err != nil {
			return err
		}

		updated, err = repo.Find(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload material request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.inv.EmitLowStock(ctx, alerts...)
	normalizeRequest(updated)
	return updated, nil
}

// Receive confirms delivery of approved materials.
func (s *service) Receive(ctx context.Context, id uuid.UUID, input ReceiveInput) (*models.MaterialRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material request id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.MaterialRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock material request")
		}
		if request.Status.Normalize() != enums.MaterialRequestStatusAwaitingDelivery {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("material request is %s", request.Status.Normalize()))
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.MaterialRequestStatusDelivered,
			"delivered_by": input.UserID,
			"delivered_at": now,
		}
		if input.Notes != nil {
			updates["notes"] = mergeNotes(request.Notes, *input.Notes)
		}
		if err := repo.UpdateRequest(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "receive material request")
		}

		if err := s.cascade.Recalculate(ctx, tx, request.MaintenanceScheduleID); err != nil {
			return err
		}

		updated, err = repo.Find(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload material request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	normalizeRequest(updated)
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MaterialRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material request id required")
	}
	request, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material request")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list material requests")
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

// FulfillFromPurchase back-fills usage lines once their shortfall purchase
// arrived in stock. Runs inside the purchase completion transaction.
func (s *service) FulfillFromPurchase(ctx context.Context, tx *gorm.DB, materialRequestID uuid.UUID, itemCodes []string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	repo := s.repo.WithTx(tx)

	request, err := repo.FindForUpdate(ctx, materialRequestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "material request not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock material request")
	}
	if request.Status.IsTerminal() {
		return nil
	}

	if err := repo.FulfillItemsByCode(ctx, materialRequestID, itemCodes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfill material request items")
	}
	remaining, err := repo.CountUnfulfilledItems(ctx, materialRequestID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unfulfilled items")
	}
	if remaining == 0 {
		if err := repo.UpdateRequest(ctx, materialRequestID, map[string]any{
			"status": enums.MaterialRequestStatusFulfilled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfill material request")
		}
	}
	return nil
}

func normalizeRequest(request *models.MaterialRequest) {
	if request == nil {
		return
	}
	request.Status = request.Status.Normalize()
}

func mergeNotes(existing *string, added string) string {
	if existing == nil || *existing == "" {
		return added
	}
	if added == "" {
		return *existing
	}
	return *existing + "\n" + added
}
