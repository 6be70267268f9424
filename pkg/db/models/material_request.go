package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// MaterialRequest covers the portion of a maintenance schedule's material
// demand that is satisfiable from current stock. A schedule may spawn
// several requests over its life.
type MaterialRequest struct {
	ID                    uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaintenanceScheduleID uuid.UUID                   `gorm:"column:maintenance_schedule_id;type:uuid;not null;index"`
	Status                enums.MaterialRequestStatus `gorm:"column:status;type:material_request_status;not null;default:'pending'"`
	Notes                 *string                     `gorm:"column:notes"`
	RequestedBy           uuid.UUID                   `gorm:"column:requested_by;type:uuid;not null"`
	ApprovedBy            *uuid.UUID                  `gorm:"column:approved_by;type:uuid"`
	ApprovedAt            *time.Time                  `gorm:"column:approved_at"`
	RejectionReason       *string                     `gorm:"column:rejection_reason"`
	DeliveredBy           *uuid.UUID                  `gorm:"column:delivered_by;type:uuid"`
	DeliveredAt           *time.Time                  `gorm:"column:delivered_at"`
	Items                 []MaterialRequestItem       `gorm:"foreignKey:MaterialRequestID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
