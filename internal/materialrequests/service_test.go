package materialrequests

import (
	"context"
	"strings"
	"testing"
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

type stubRepo struct {
	requests map[uuid.UUID]*models.MaterialRequest
	created  []*models.MaterialRequest
}

func newStubRepo(requests ...*models.MaterialRequest) *stubRepo {
	repo := &stubRepo{requests: make(map[uuid.UUID]*models.MaterialRequest)}
	for _, request := range requests {
		repo.requests[request.ID] = request
	}
	return repo
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(ctx context.Context, request *models.MaterialRequest) error {
	request.ID = uuid.New()
	for i := range request.Items {
		request.Items[i].ID = uuid.New()
		request.Items[i].MaterialRequestID = request.ID
	}
	r.requests[request.ID] = request
	r.created = append(r.created, request)
	return nil
}

func (r *stubRepo) Find(ctx context.Context, id uuid.UUID) (*models.MaterialRequest, error) {
	request, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *stubRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.MaterialRequest, error) {
	return r.Find(ctx, id)
}

func (r *stubRepo) List(ctx context.Context, params listRequestsParams) ([]models.MaterialRequest, *pagination.Cursor, error) {
	var out []models.MaterialRequest
	for _, request := range r.requests {
		out = append(out, *request)
	}
	return out, nil, nil
}

func (r *stubRepo) UpdateRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	request := r.requests[id]
	if status, ok := updates["status"].(enums.MaterialRequestStatus); ok {
		request.Status = status
	}
	if by, ok := updates["approved_by"].(uuid.UUID); ok {
		request.ApprovedBy = &by
	}
	if by, ok := updates["delivered_by"].(uuid.UUID); ok {
		request.DeliveredBy = &by
	}
	if notes, ok := updates["notes"].(string); ok {
		request.Notes = &notes
	}
	if reason, ok := updates["rejection_reason"].(*string); ok {
		request.RejectionReason = reason
	}
	return nil
}

func (r *stubRepo) UpdateAllItemStatuses(ctx context.Context, requestID uuid.UUID, status enums.MaterialRequestItemStatus) error {
	request := r.requests[requestID]
	for i := range request.Items {
		request.Items[i].Status = status
	}
	return nil
}

func (r *stubRepo) MarkItemFulfilled(ctx context.Context, itemID uuid.UUID, actualQuantityUsed int) error {
	for _, request := range r.requests {
		for i := range request.Items {
			if request.Items[i].ID == itemID {
				request.Items[i].Status = enums.MaterialRequestItemStatusFulfilled
				request.Items[i].ActualQuantityUsed = &actualQuantityUsed
			}
		}
	}
	return nil
}

func (r *stubRepo) FulfillItemsByCode(ctx context.Context, requestID uuid.UUID, itemCodes []string) error {
	request := r.requests[requestID]
	for i := range request.Items {
		for _, code := range itemCodes {
			if request.Items[i].InventoryItemCode == code {
				request.Items[i].Status = enums.MaterialRequestItemStatusFulfilled
			}
		}
	}
	return nil
}

func (r *stubRepo) CountUnfulfilledItems(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	for _, item := range r.requests[requestID].Items {
		if item.Status != enums.MaterialRequestItemStatusFulfilled {
			count++
		}
	}
	return count, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeInventory struct {
	items   map[string]*models.InventoryItem
	applied []inventory.ApplyInput
	emitted []*inventory.LowStockAlert
}

func (f *fakeInventory) GetItemForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.InventoryItem, error) {
	item, ok := f.items[code]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	copied := *item
	return &copied, nil
}

func (f *fakeInventory) Apply(ctx context.Context, tx *gorm.DB, input inventory.ApplyInput) (*models.InventoryTransaction, *inventory.LowStockAlert, error) {
	item := f.items[input.ItemCode]
	if input.Quantity > item.CurrentStock {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"item_code": input.ItemCode})
	}
	item.CurrentStock -= input.Quantity
	f.applied = append(f.applied, input)
	var alert *inventory.LowStockAlert
	if item.CurrentStock <= item.MinimumThreshold {
		alert = &inventory.LowStockAlert{ItemCode: item.Code, CurrentStock: item.CurrentStock}
	}
	return &models.InventoryTransaction{ItemCode: input.ItemCode}, alert, nil
}

func (f *fakeInventory) EmitLowStock(ctx context.Context, alerts ...*inventory.LowStockAlert) {
	for _, alert := range alerts {
		if alert != nil {
			f.emitted = append(f.emitted, alert)
		}
	}
}

type fakePurchaseCreator struct {
	inputs []ShortfallInput
}

func (f *fakePurchaseCreator) CreateForShortfall(ctx context.Context, tx *gorm.DB, input ShortfallInput) (*models.PurchaseRequest, error) {
	f.inputs = append(f.inputs, input)
	return &models.PurchaseRequest{
		ID:                    uuid.New(),
		MaintenanceScheduleID: &input.MaintenanceScheduleID,
		MaterialRequestID:     input.MaterialRequestID,
		Status:                enums.PurchaseRequestStatusPending,
	}, nil
}

type stubScheduleRepo struct {
	schedule  *models.MaintenanceSchedule
	materials []enums.MaterialRequestStatus
	purchases []enums.PurchaseRequestStatus
}

func (r *stubScheduleRepo) WithTx(tx *gorm.DB) maintenance.Repository { return r }

func (r *stubScheduleRepo) FindSchedule(ctx context.Context, id uuid.UUID) (*models.MaintenanceSchedule, error) {
	if r.schedule == nil || r.schedule.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r.schedule
	return &copied, nil
}

func (r *stubScheduleRepo) FindScheduleForUpdate(ctx context.Context, id uuid.UUID) (*models.MaintenanceSchedule, error) {
	return r.FindSchedule(ctx, id)
}

func (r *stubScheduleRepo) MaterialRequestStatuses(ctx context.Context, scheduleID uuid.UUID) ([]enums.MaterialRequestStatus, error) {
	return r.materials, nil
}

func (r *stubScheduleRepo) PurchaseRequestStatuses(ctx context.Context, scheduleID uuid.UUID) ([]enums.PurchaseRequestStatus, error) {
	return r.purchases, nil
}

func (r *stubScheduleRepo) UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status enums.MaintenanceStatus, startedAt *time.Time) error {
	r.schedule.Status = status
	if startedAt != nil {
		r.schedule.StartedAt = startedAt
	}
	return nil
}

type fixture struct {
	svc       Service
	repo      *stubRepo
	inv       *fakeInventory
	purchases *fakePurchaseCreator
	schedules *stubScheduleRepo
}

func newFixture(t *testing.T, repo *stubRepo, inv *fakeInventory, schedules *stubScheduleRepo) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	cascade, err := maintenance.NewCascade(schedules, logg)
	if err != nil {
		t.Fatalf("build cascade: %v", err)
	}
	purchases := &fakePurchaseCreator{}
	svc, err := NewService(repo, stubTxRunner{}, inv, purchases, schedules, cascade, logg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, inv: inv, purchases: purchases, schedules: schedules}
}

func invItem(code string, stock int, unitCost float64) *models.InventoryItem {
	cost := decimal.NewFromFloat(unitCost)
	return &models.InventoryItem{Code: code, Name: "Item " + code, CurrentStock: stock, UnitCost: &cost, IsActive: true}
}

func TestCreateSplitsShortfallIntoPurchase(t *testing.T) {
	scheduleID := uuid.New()
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{"PIPE-050": invItem("PIPE-050", 7, 12.50)}}
	f := newFixture(t, newStubRepo(), inv, schedules)

	result, err := f.svc.Create(context.Background(), CreateInput{
		MaintenanceScheduleID: scheduleID,
		Items:                 []RequestedItem{{ItemCode: "PIPE-050", Quantity: 10}},
		RequestedBy:           uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeBoth {
		t.Fatalf("expected both, got %q", result.Outcome)
	}

	items := result.MaterialRequest.Items
	if len(items) != 1 || items[0].RequestedQuantity != 7 || items[0].AvailableQuantity != 7 {
		t.Fatalf("unexpected usage items %+v", items)
	}
	if items[0].RequestType != enums.MaterialRequestTypeUsage {
		t.Fatalf("unexpected request type %q", items[0].RequestType)
	}

	if len(f.purchases.inputs) != 1 {
		t.Fatalf("expected one shortfall, got %d", len(f.purchases.inputs))
	}
	shortfall := f.purchases.inputs[0]
	if len(shortfall.Items) != 1 || shortfall.Items[0].Quantity != 3 {
		t.Fatalf("unexpected shortfall %+v", shortfall.Items)
	}
	if !shortfall.Items[0].UnitCost.Equal(decimal.NewFromFloat(12.50)) {
		t.Fatalf("unit cost must come from the item, got %s", shortfall.Items[0].UnitCost)
	}
	if shortfall.MaterialRequestID == nil || *shortfall.MaterialRequestID != result.MaterialRequest.ID {
		t.Fatal("purchase must be cross-referenced to the material request")
	}
}

func TestCreateFullStockNeedsNoPurchase(t *testing.T) {
	scheduleID := uuid.New()
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{"PIPE-050": invItem("PIPE-050", 12, 0)}}
	f := newFixture(t, newStubRepo(), inv, schedules)

	result, err := f.svc.Create(context.Background(), CreateInput{
		MaintenanceScheduleID: scheduleID,
		Items:                 []RequestedItem{{ItemCode: "PIPE-050", Quantity: 10}},
		RequestedBy:           uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeMaterialOnly {
		t.Fatalf("expected material_only, got %q", result.Outcome)
	}
	if result.MaterialRequest.Items[0].RequestedQuantity != 10 {
		t.Fatalf("unexpected usage quantity %d", result.MaterialRequest.Items[0].RequestedQuantity)
	}
	if len(f.purchases.inputs) != 0 {
		t.Fatal("no purchase request expected")
	}
}

func TestCreatePurchaseOnlyWhenOutOfStock(t *testing.T) {
	scheduleID := uuid.New()
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{"PIPE-050": invItem("PIPE-050", 0, 5)}}
	f := newFixture(t, newStubRepo(), inv, schedules)

	result, err := f.svc.Create(context.Background(), CreateInput{
		MaintenanceScheduleID: scheduleID,
		Items:                 []RequestedItem{{ItemCode: "PIPE-050", Quantity: 4}},
		RequestedBy:           uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomePurchaseOnly {
		t.Fatalf("expected purchase_only, got %q", result.Outcome)
	}
	if result.MaterialRequest != nil {
		t.Fatal("no material request expected")
	}
	if f.purchases.inputs[0].MaterialRequestID != nil {
		t.Fatal("no cross-reference expected for purchase-only")
	}
}

func TestCreateRejectsAllZeroQuantities(t *testing.T) {
	scheduleID := uuid.New()
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	f := newFixture(t, newStubRepo(), &fakeInventory{items: map[string]*models.InventoryItem{}}, schedules)

	_, err := f.svc.Create(context.Background(), CreateInput{
		MaintenanceScheduleID: scheduleID,
		Items:                 []RequestedItem{{ItemCode: "PIPE-050", Quantity: 0}},
		RequestedBy:           uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateUnknownSchedule(t *testing.T) {
	f := newFixture(t, newStubRepo(), &fakeInventory{items: map[string]*models.InventoryItem{}}, &stubScheduleRepo{})

	_, err := f.svc.Create(context.Background(), CreateInput{
		MaintenanceScheduleID: uuid.New(),
		Items:                 []RequestedItem{{ItemCode: "PIPE-050", Quantity: 1}},
		RequestedBy:           uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func pendingRequest(scheduleID uuid.UUID, items ...models.MaterialRequestItem) *models.MaterialRequest {
	request := &models.MaterialRequest{
		ID:                    uuid.New(),
		MaintenanceScheduleID: scheduleID,
		Status:                enums.MaterialRequestStatusPending,
		RequestedBy:           uuid.New(),
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].MaterialRequestID = request.ID
	}
	request.Items = items
	return request
}

func usageLine(code string, quantity int) models.MaterialRequestItem {
	return models.MaterialRequestItem{
		InventoryItemCode: code,
		RequestedQuantity: quantity,
		RequestType:       enums.MaterialRequestTypeUsage,
		Status:            enums.MaterialRequestItemStatusPending,
	}
}

func TestApproveDeductsStockAndCascades(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 5))
	schedules := &stubScheduleRepo{
		schedule:  &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested},
		materials: []enums.MaterialRequestStatus{enums.MaterialRequestStatusAwaitingDelivery},
		purchases: []enums.PurchaseRequestStatus{enums.PurchaseRequestStatusPending},
	}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{"PIPE-050": invItem("PIPE-050", 5, 0)}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	updated, err := f.svc.Approve(context.Background(), request.ID, ApproveInput{Approve: true, UserID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.MaterialRequestStatusAwaitingDelivery {
		t.Fatalf("expected awaiting_delivery, got %q", updated.Status)
	}
	if inv.items["PIPE-050"].CurrentStock != 0 {
		t.Fatalf("expected stock 0, got %d", inv.items["PIPE-050"].CurrentStock)
	}
	if len(inv.applied) != 1 || inv.applied[0].Type != enums.TransactionTypeUsage {
		t.Fatalf("unexpected ledger calls %+v", inv.applied)
	}
	if inv.applied[0].Reference == nil || *inv.applied[0].Reference != scheduleID.String() {
		t.Fatal("ledger reference must be the schedule id")
	}
	item := updated.Items[0]
	if item.Status != enums.MaterialRequestItemStatusFulfilled || item.ActualQuantityUsed == nil || *item.ActualQuantityUsed != 5 {
		t.Fatalf("unexpected item state %+v", item)
	}
	if schedules.schedule.Status != enums.MaintenanceStatusPartiallyStarted {
		t.Fatalf("expected cascade to partially_started, got %q", schedules.schedule.Status)
	}
	if len(inv.emitted) != 1 {
		t.Fatalf("expected one low stock alert, got %d", len(inv.emitted))
	}
}

func TestApproveAbortsOnFirstInsufficientItem(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 2), usageLine("GRAVEL", 9))
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{
		"PIPE-050": invItem("PIPE-050", 10, 0),
		"GRAVEL":   invItem("GRAVEL", 3, 0),
	}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	_, err := f.svc.Approve(context.Background(), request.ID, ApproveInput{Approve: true, UserID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if !strings.Contains(err.Error(), "GRAVEL") {
		t.Fatalf("error must name the failing item, got %v", err)
	}
	if f.repo.requests[request.ID].Status != enums.MaterialRequestStatusPending {
		t.Fatalf("request must stay pending, got %q", f.repo.requests[request.ID].Status)
	}
}

func TestApproveRejectMarksEverythingRejected(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 2))
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{"PIPE-050": invItem("PIPE-050", 10, 0)}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	reason := "wrong schedule"
	updated, err := f.svc.Approve(context.Background(), request.ID, ApproveInput{Approve: false, RejectionReason: &reason, UserID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.MaterialRequestStatusRejected {
		t.Fatalf("expected rejected, got %q", updated.Status)
	}
	if updated.Items[0].Status != enums.MaterialRequestItemStatusRejected {
		t.Fatalf("items must be rejected, got %q", updated.Items[0].Status)
	}
	if len(inv.applied) != 0 {
		t.Fatal("reject must not touch stock")
	}
}

func TestApproveBackwardTransitionsFail(t *testing.T) {
	scheduleID := uuid.New()
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{}}

	for _, status := range []enums.MaterialRequestStatus{
		enums.MaterialRequestStatusRejected,
		enums.MaterialRequestStatusDelivered,
	} {
		request := pendingRequest(scheduleID, usageLine("PIPE-050", 1))
		request.Status = status
		f := newFixture(t, newStubRepo(request), inv, schedules)

		_, err := f.svc.Approve(context.Background(), request.ID, ApproveInput{Approve: true, UserID: uuid.New()})
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("expected state conflict from %q, got %v", status, err)
		}
	}
}

func TestApproveLegacyApprovedFastForwards(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 1))
	request.Status = enums.MaterialRequestStatus("approved")
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{"PIPE-050": invItem("PIPE-050", 10, 0)}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	updated, err := f.svc.Approve(context.Background(), request.ID, ApproveInput{Approve: true, UserID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.MaterialRequestStatusAwaitingDelivery {
		t.Fatalf("expected awaiting_delivery, got %q", updated.Status)
	}
	if len(inv.applied) != 0 {
		t.Fatal("fast-forward must not deduct stock again")
	}
}

func TestReceiveOnlyFromAwaitingDelivery(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 1))
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	_, err := f.svc.Receive(context.Background(), request.ID, ReceiveInput{UserID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReceiveDeliversAndMergesNotes(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 1))
	request.Status = enums.MaterialRequestStatusAwaitingDelivery
	existing := "ordered from depot"
	request.Notes = &existing
	schedules := &stubScheduleRepo{
		schedule:  &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested},
		materials: []enums.MaterialRequestStatus{enums.MaterialRequestStatusDelivered},
	}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	notes := "left at bay 3"
	updated, err := f.svc.Receive(context.Background(), request.ID, ReceiveInput{Notes: &notes, UserID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.MaterialRequestStatusDelivered {
		t.Fatalf("expected delivered, got %q", updated.Status)
	}
	if updated.Notes == nil || *updated.Notes != "ordered from depot\nleft at bay 3" {
		t.Fatalf("unexpected notes %v", updated.Notes)
	}
	if schedules.schedule.Status != enums.MaintenanceStatusStarted {
		t.Fatalf("expected cascade to started, got %q", schedules.schedule.Status)
	}
}

func TestFulfillFromPurchaseBackfillsItems(t *testing.T) {
	scheduleID := uuid.New()
	request := pendingRequest(scheduleID, usageLine("PIPE-050", 1))
	request.Status = enums.MaterialRequestStatusAwaitingDelivery
	schedules := &stubScheduleRepo{schedule: &models.MaintenanceSchedule{ID: scheduleID, Status: enums.MaintenanceStatusRequested}}
	inv := &fakeInventory{items: map[string]*models.InventoryItem{}}
	f := newFixture(t, newStubRepo(request), inv, schedules)

	err := f.svc.FulfillFromPurchase(context.Background(), &gorm.DB{}, request.ID, []string{"PIPE-050"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := f.repo.requests[request.ID]
	if stored.Items[0].Status != enums.MaterialRequestItemStatusFulfilled {
		t.Fatalf("expected fulfilled item, got %q", stored.Items[0].Status)
	}
	if stored.Status != enums.MaterialRequestStatusFulfilled {
		t.Fatalf("expected fulfilled request, got %q", stored.Status)
	}
}
