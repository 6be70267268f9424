package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	"github.com/muniworks/maintenance-backend/pkg/pagination"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS inventory_items (
  code TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category_id TEXT,
  current_stock INTEGER NOT NULL DEFAULT 0,
  minimum_threshold INTEGER NOT NULL DEFAULT 0,
  unit_cost TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS inventory_transactions (
  id TEXT PRIMARY KEY,
  item_code TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  stock_before INTEGER NOT NULL,
  stock_after INTEGER NOT NULL,
  user_id TEXT NOT NULL,
  reference TEXT,
  notes TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec("DELETE FROM inventory_items").Error)
	require.NoError(t, db.Exec("DELETE FROM inventory_transactions").Error)

	return db
}

func seedItem(t *testing.T, db *gorm.DB, code string, stock, threshold int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		Code:             code,
		Name:             "Item " + code,
		CurrentStock:     stock,
		MinimumThreshold: threshold,
		IsActive:         true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryCreateAndFindItem(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := &models.InventoryItem{
		Code:             "PIPE-050",
		Name:             "PVC pipe 50mm",
		CurrentStock:     12,
		MinimumThreshold: 5,
		IsActive:         true,
	}
	require.NoError(t, repo.CreateItem(ctx, item))

	found, err := repo.FindItem(ctx, "PIPE-050")
	require.NoError(t, err)
	assert.Equal(t, "PVC pipe 50mm", found.Name)
	assert.Equal(t, 12, found.CurrentStock)

	_, err = repo.FindItem(ctx, "NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListItemsKeysetAndLowStockFilter(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, db, "AA-001", 10, 2)
	seedItem(t, db, "BB-002", 1, 5)
	seedItem(t, db, "CC-003", 3, 3)

	page, next, err := repo.ListItems(ctx, listItemsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "AA-001", page[0].Code)
	assert.Equal(t, "BB-002", page[1].Code)
	require.Equal(t, "BB-002", next)

	rest, next, err := repo.ListItems(ctx, listItemsParams{Limit: 2, AfterCode: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "CC-003", rest[0].Code)
	assert.Empty(t, next)

	low, _, err := repo.ListItems(ctx, listItemsParams{Limit: 10, LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "BB-002", low[0].Code)
	assert.Equal(t, "CC-003", low[1].Code)
}

func TestRepositoryUpdateStockGuarded(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, db, "GRAVEL", 40, 10)

	updated, err := repo.UpdateStockGuarded(ctx, "GRAVEL", 40, 35)
	require.NoError(t, err)
	assert.True(t, updated)

	item, err := repo.FindItem(ctx, "GRAVEL")
	require.NoError(t, err)
	assert.Equal(t, 35, item.CurrentStock)

	// Stale expected value must not write.
	updated, err = repo.UpdateStockGuarded(ctx, "GRAVEL", 40, 30)
	require.NoError(t, err)
	assert.False(t, updated)

	item, err = repo.FindItem(ctx, "GRAVEL")
	require.NoError(t, err)
	assert.Equal(t, 35, item.CurrentStock)
}

func TestRepositoryListTransactionsPagination(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, db, "PIPE-050", 20, 5)
	userID := uuid.New()

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		txn := &models.InventoryTransaction{
			ID:          uuid.New(),
			ItemCode:    "PIPE-050",
			Type:        enums.TransactionTypeIn,
			Quantity:    1,
			StockBefore: 20 + i,
			StockAfter:  21 + i,
			UserID:      userID,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateTransaction(ctx, txn))
	}

	page, cursor, err := repo.ListTransactions(ctx, listTransactionsParams{ItemCode: "PIPE-050", Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotNil(t, cursor)
	assert.Equal(t, 25, page[0].StockAfter)
	assert.Equal(t, 23, page[2].StockAfter)

	rest, cursor, err := repo.ListTransactions(ctx, listTransactionsParams{
		ItemCode: "PIPE-050",
		Limit:    3,
		Cursor:   &pagination.Cursor{CreatedAt: cursor.CreatedAt, ID: cursor.ID},
	})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Nil(t, cursor)
	assert.Equal(t, 22, rest[0].StockAfter)
	assert.Equal(t, 21, rest[1].StockAfter)
}

func TestRepositoryWithTxRebinds(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, db, "SAND", 8, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		bound := repo.WithTx(tx)
		updated, err := bound.UpdateStockGuarded(ctx, "SAND", 8, 6)
		require.NoError(t, err)
		require.True(t, updated)
		return nil
	})
	require.NoError(t, err)

	item, err := repo.FindItem(ctx, "SAND")
	require.NoError(t, err)
	assert.Equal(t, 6, item.CurrentStock)
}
