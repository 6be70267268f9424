package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// PurchaseRequest procures the shortfall a material request (or a direct
// caller) could not satisfy from stock. TotalCost is fixed at creation.
type PurchaseRequest struct {
	ID                    uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaintenanceScheduleID *uuid.UUID                  `gorm:"column:maintenance_schedule_id;type:uuid;index"`
	MaterialRequestID     *uuid.UUID                  `gorm:"column:material_request_id;type:uuid;index"`
	Status                enums.PurchaseRequestStatus `gorm:"column:status;type:purchase_request_status;not null;default:'pending'"`
	SupplierName          *string                     `gorm:"column:supplier_name"`
	SupplierContact       *string                     `gorm:"column:supplier_contact"`
	Notes                 *string                     `gorm:"column:notes"`
	TotalCost             decimal.Decimal             `gorm:"column:total_cost;type:numeric(12,2);not null"`
	RequestedBy           uuid.UUID                   `gorm:"column:requested_by;type:uuid;not null"`
	ApprovedBy            *uuid.UUID                  `gorm:"column:approved_by;type:uuid"`
	ApprovedAt            *time.Time                  `gorm:"column:approved_at"`
	RejectionReason       *string                     `gorm:"column:rejection_reason"`
	OrderedAt             *time.Time                  `gorm:"column:ordered_at"`
	ReadyToDeliverBy      *uuid.UUID                  `gorm:"column:ready_to_deliver_by;type:uuid"`
	ReadyToDeliverAt      *time.Time                  `gorm:"column:ready_to_deliver_at"`
	CompletedBy           *uuid.UUID                  `gorm:"column:completed_by;type:uuid"`
	CompletedAt           *time.Time                  `gorm:"column:completed_at"`
	DeliveredBy           *uuid.UUID                  `gorm:"column:delivered_by;type:uuid"`
	DeliveredAt           *time.Time                  `gorm:"column:delivered_at"`
	Items                 []PurchaseRequestItem       `gorm:"foreignKey:PurchaseRequestID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

// Stage reports the pipeline stage including the ordered sub-state of
// approved requests, so callers never infer it from the nullable stamp.
func (p PurchaseRequest) Stage() string {
	status := p.Status.Normalize()
	if status == enums.PurchaseRequestStatusApproved && p.OrderedAt != nil {
		return "ordered"
	}
	return string(status)
}
