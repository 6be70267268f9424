package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryLowStockEvent is emitted when a ledger write drops an item to or
// below its minimum threshold.
type InventoryLowStockEvent struct {
	ItemCode         string `json:"item_code"`
	ItemName         string `json:"item_name"`
	CurrentStock     int    `json:"current_stock"`
	MinimumThreshold int    `json:"minimum_threshold"`
}

// PurchaseRequestCompletedEvent signals purchased materials arrived in stock.
type PurchaseRequestCompletedEvent struct {
	PurchaseRequestID     uuid.UUID       `json:"purchase_request_id"`
	MaintenanceScheduleID *uuid.UUID      `json:"maintenance_schedule_id,omitempty"`
	MaterialRequestID     *uuid.UUID      `json:"material_request_id,omitempty"`
	TotalCost             decimal.Decimal `json:"total_cost"`
	ItemCount             int             `json:"item_count"`
	CompletedAt           time.Time       `json:"completed_at"`
}
