package models

import (
	"github.com/google/uuid"

	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// MaterialRequestItem is one usage line of a material request.
// RequestedQuantity never exceeds the stock snapshot taken at creation;
// purchase shortfalls live on the sibling purchase request instead.
type MaterialRequestItem struct {
	ID                 uuid.UUID                       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialRequestID  uuid.UUID                       `gorm:"column:material_request_id;type:uuid;not null;index"`
	InventoryItemCode  string                          `gorm:"column:inventory_item_code;not null"`
	RequestedQuantity  int                             `gorm:"column:requested_quantity;not null"`
	AvailableQuantity  int                             `gorm:"column:available_quantity;not null"`
	RequestType        enums.MaterialRequestType       `gorm:"column:request_type;type:material_request_type;not null;default:'usage'"`
	Status             enums.MaterialRequestItemStatus `gorm:"column:status;type:material_request_item_status;not null;default:'pending'"`
	ActualQuantityUsed *int                            `gorm:"column:actual_quantity_used"`
}
