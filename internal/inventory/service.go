package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LowStockAlert describes a downward threshold crossing produced by a ledger write.
type LowStockAlert struct {
	ItemCode         string
	ItemName         string
	CurrentStock     int
	MinimumThreshold int
}

// LowStockNotifier persists and queues low-stock notifications in its own transaction.
type LowStockNotifier interface {
	LowStock(ctx context.Context, alert LowStockAlert) error
}

// Service defines the inventory ledger operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, code string) (*models.InventoryItem, error)
	GetItemForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.InventoryItem, error)
	ListItems(ctx context.Context, params ListItemsParams) (*ListItemsResult, error)
	ListTransactions(ctx context.Context, params ListTransactionsParams) (*ListTransactionsResult, error)
	ApplyTransaction(ctx context.Context, input ApplyInput) (*models.InventoryTransaction, error)
	Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*models.InventoryTransaction, *LowStockAlert, error)
	EmitLowStock(ctx context.Context, alerts ...*LowStockAlert)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier LowStockNotifier
	logg     *logger.Logger
}

// CreateItemInput carries the fields needed to register a material.
type CreateItemInput struct {
	Code             string
	Name             string
	CategoryID       *uuid.UUID
	MinimumThreshold int
	UnitCost         *decimal.Decimal
}

// ApplyInput captures one ledger mutation.
type ApplyInput struct {
	ItemCode  string
	Type      enums.TransactionType
	Quantity  int
	UserID    uuid.UUID
	Reference *string
	Notes     *string
}

// ListItemsParams configures keyset pagination over the item catalog.
type ListItemsParams struct {
	Limit        int
	AfterCode    string
	LowStockOnly bool
}

// ListItemsResult wraps a page of items and the cursor for the next page.
type ListItemsResult struct {
	Items  []models.InventoryItem `json:"items"`
	Cursor string                 `json:"cursor"`
}

// ListTransactionsParams configures pagination over one item's ledger.
type ListTransactionsParams struct {
	ItemCode string
	Limit    int
	Cursor   string
}

// ListTransactionsResult wraps a ledger page and the next cursor.
type ListTransactionsResult struct {
	Items  []models.InventoryTransaction `json:"items"`
	Cursor string                        `json:"cursor"`
}

// NewService wires the inventory ledger with its dependencies.
func NewService(repo Repository, tx txRunner, notifier LowStockNotifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("low stock notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, logg: logg}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.MinimumThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum threshold must be non-negative")
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost must be non-negative")
	}

	item := &models.InventoryItem{
		Code:             code,
		Name:             strings.TrimSpace(input.Name),
		CategoryID:       input.CategoryID,
		MinimumThreshold: input.MinimumThreshold,
		UnitCost:         input.UnitCost,
		IsActive:         true,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		if existing, findErr := s.repo.FindItem(ctx, code); findErr == nil && existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, code string) (*models.InventoryItem, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	item, err := s.repo.FindItem(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

// GetItemForUpdate reads an item with a row lock inside the caller's
// transaction, for workflows that plan against a stable stock snapshot.
func (s *service) GetItemForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.InventoryItem, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	item, err := s.repo.WithTx(tx).FindItemForUpdate(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, params ListItemsParams) (*ListItemsResult, error) {
	items, next, err := s.repo.ListItems(ctx, listItemsParams{
		Limit:        params.Limit,
		AfterCode:    params.AfterCode,
		LowStockOnly: params.LowStockOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
	}
	return &ListItemsResult{Items: items, Cursor: next}, nil
}

func (s *service) ListTransactions(ctx context.Context, params ListTransactionsParams) (*ListTransactionsResult, error) {
	if strings.TrimSpace(params.ItemCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	if _, err := s.GetItem(ctx, params.ItemCode); err != nil {
		return nil, err
	}

	query := listTransactionsParams{ItemCode: params.ItemCode, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListTransactions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListTransactionsResult{Items: rows, Cursor: cursor}, nil
}

// ApplyTransaction runs one ledger write in its own transaction and emits any
// low-stock alert after commit.
func (s *service) ApplyTransaction(ctx context.Context, input ApplyInput) (*models.InventoryTransaction, error) {
	var txn *models.InventoryTransaction
	var alert *LowStockAlert

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		txn, alert, applyErr = s.Apply(ctx, tx, input)
		return applyErr
	})
	if err != nil {
		return nil, err
	}

	s.EmitLowStock(ctx, alert)
	return txn, nil
}

// Apply performs the read-modify-write cycle inside the caller's transaction.
// The returned alert, if any, must be emitted by the caller after commit.
func (s *service) Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*models.InventoryTransaction, *LowStockAlert, error) {
	if tx == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if strings.TrimSpace(input.ItemCode) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	if !input.Type.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.Quantity < 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	// An adjustment records the counted level, so zero is a valid value there.
	if input.Quantity == 0 && input.Type != enums.TransactionTypeAdjustment {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UserID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	repo := s.repo.WithTx(tx)

	item, err := repo.FindItemForUpdate(ctx, input.ItemCode)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory item")
	}
	if !item.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "inventory item is inactive")
	}

	before := item.CurrentStock
	after, err := nextStock(before, input.Type, input.Quantity)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			return nil, nil, pkgerrors.As(err).WithDetails(map[string]any{
				"item_code": item.Code,
				"available": before,
				"requested": input.Quantity,
			})
		}
		return nil, nil, err
	}

	updated, err := repo.UpdateStockGuarded(ctx, item.Code, before, after)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
	}
	if !updated {
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, "stock changed concurrently")
	}

	txn := &models.InventoryTransaction{
		ItemCode:    item.Code,
		Type:        input.Type,
		Quantity:    input.Quantity,
		StockBefore: before,
		StockAfter:  after,
		UserID:      input.UserID,
		Reference:   input.Reference,
		Notes:       input.Notes,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inventory transaction")
	}

	var alert *LowStockAlert
	if after <= item.MinimumThreshold && before > item.MinimumThreshold {
		alert = &LowStockAlert{
			ItemCode:         item.Code,
			ItemName:         item.Name,
			CurrentStock:     after,
			MinimumThreshold: item.MinimumThreshold,
		}
	}
	return txn, alert, nil
}

// EmitLowStock queues alerts best-effort. Failures are logged and swallowed so
// a notification outage never rolls back or fails a committed ledger write.
func (s *service) EmitLowStock(ctx context.Context, alerts ...*LowStockAlert) {
	var errs error
	for _, alert := range alerts {
		if alert == nil {
			continue
		}
		if err := s.notifier.LowStock(ctx, *alert); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("alert for %s: %w", alert.ItemCode, err))
		}
	}
	if errs != nil {
		s.logg.Error(ctx, "low stock alert emission failed", errs)
	}
}

func nextStock(before int, txType enums.TransactionType, quantity int) (int, error) {
	switch {
	case txType.Increases():
		return before + quantity, nil
	case txType.Decreases():
		if quantity > before {
			return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
		}
		return before - quantity, nil
	case txType == enums.TransactionTypeAdjustment:
		// Adjustment sets the absolute level recorded by a physical count.
		return quantity, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported transaction type %q", txType))
	}
}
