package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem tracks the physical stock of one maintenance material.
// Code is the business key; current_stock is the only mutable aggregate
// and is written exclusively by the inventory ledger.
type InventoryItem struct {
	Code             string           `gorm:"column:code;primaryKey"`
	Name             string           `gorm:"column:name;not null"`
	CategoryID       *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	CurrentStock     int              `gorm:"column:current_stock;not null;default:0"`
	MinimumThreshold int              `gorm:"column:minimum_threshold;not null;default:0"`
	UnitCost         *decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2)"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
