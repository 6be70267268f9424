package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// InventoryTransaction is an append-only ledger row explaining one stock
// mutation. Rows are never updated or deleted; stock_before/stock_after
// chain per item in created_at order.
type InventoryTransaction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemCode    string                `gorm:"column:item_code;not null;index"`
	Type        enums.TransactionType `gorm:"column:type;type:transaction_type;not null"`
	Quantity    int                   `gorm:"column:quantity;not null"`
	StockBefore int                   `gorm:"column:stock_before;not null"`
	StockAfter  int                   `gorm:"column:stock_after;not null"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Reference   *string               `gorm:"column:reference"`
	Notes       *string               `gorm:"column:notes"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
