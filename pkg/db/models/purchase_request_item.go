package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRequestItem is one procurement line. TotalCost is always
// requested_quantity times unit_cost, computed at creation.
type PurchaseRequestItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseRequestID uuid.UUID       `gorm:"column:purchase_request_id;type:uuid;not null;index"`
	InventoryItemCode string          `gorm:"column:inventory_item_code;not null"`
	RequestedQuantity int             `gorm:"column:requested_quantity;not null"`
	UnitCost          decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	TotalCost         decimal.Decimal `gorm:"column:total_cost;type:numeric(12,2);not null"`
}
