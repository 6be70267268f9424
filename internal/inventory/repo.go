package inventory

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

// Repository exposes persistence helpers for inventory items and the ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	FindItem(ctx context.Context, code string) (*models.InventoryItem, error)
	FindItemForUpdate(ctx context.Context, code string) (*models.InventoryItem, error)
	ListItems(ctx context.Context, params listItemsParams) ([]models.InventoryItem, string, error)
	UpdateStockGuarded(ctx context.Context, code string, expected, next int) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, params listTransactionsParams) ([]models.InventoryTransaction, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listItemsParams struct {
	Limit        int
	AfterCode    string
	LowStockOnly bool
}

type listTransactionsParams struct {
	ItemCode string
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) FindItem(ctx context.Context, code string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUpdate locks the item row for the duration of the surrounding
// transaction so the read-modify-write cycle is serialized per item.
func (r *repositoryImpl) FindItemForUpdate(ctx context.Context, code string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) ListItems(ctx context.Context, params listItemsParams) ([]models.InventoryItem, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if params.LowStockOnly {
		query = query.Where("current_stock <= minimum_threshold")
	}
	if params.AfterCode != "" {
		query = query.Where("code > ?", params.AfterCode)
	}

	var items []models.InventoryItem
	if err := query.Order("code ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, "", err
	}

	if len(items) > normalized {
		items = items[:normalized]
		return items, items[len(items)-1].Code, nil
	}
	return items, "", nil
}

// UpdateStockGuarded writes the new stock level only when the row still holds
// the expected value, so a lost lock can never drive stock negative.
func (r *repositoryImpl) UpdateStockGuarded(ctx context.Context, code string, expected, next int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET current_stock = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE code = ? AND current_stock = ?
	`, next, code, expected)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repositoryImpl) ListTransactions(ctx context.Context, params listTransactionsParams) ([]models.InventoryTransaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.InventoryTransaction{}).
		Where("item_code = ?", params.ItemCode)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.InventoryTransaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}
