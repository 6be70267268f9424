package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// MaintenanceSchedule is owned by the maintenance collaborator. This core
// reads it for existence checks and writes status/started_at through the
// cascade only.
type MaintenanceSchedule struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string                  `gorm:"column:title;not null"`
	Status    enums.MaintenanceStatus `gorm:"column:status;type:maintenance_status;not null;default:'requested'"`
	StartedAt *time.Time              `gorm:"column:started_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
