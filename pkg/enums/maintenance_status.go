package enums

import "fmt"

// MaintenanceStatus maps to the maintenance_status enum in Postgres.
//
// Only requested, started and partially_started are written by this service;
// paused and completed belong to the maintenance collaborator and are never
// overwritten by the cascade.
type MaintenanceStatus string

const (
	MaintenanceStatusRequested        MaintenanceStatus = "requested"
	MaintenanceStatusStarted          MaintenanceStatus = "started"
	MaintenanceStatusPartiallyStarted MaintenanceStatus = "partially_started"
	MaintenanceStatusPaused           MaintenanceStatus = "paused"
	MaintenanceStatusCompleted        MaintenanceStatus = "completed"
)

var validMaintenanceStatuses = []MaintenanceStatus{
	MaintenanceStatusRequested,
	MaintenanceStatusStarted,
	MaintenanceStatusPartiallyStarted,
	MaintenanceStatusPaused,
	MaintenanceStatusCompleted,
}

// IsValid reports whether the value matches the canonical enum.
func (s MaintenanceStatus) IsValid() bool {
	for _, candidate := range validMaintenanceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// OwnedByCollaborator reports whether the status is managed by the
// maintenance collaborator rather than the request workflows.
func (s MaintenanceStatus) OwnedByCollaborator() bool {
	return s == MaintenanceStatusPaused || s == MaintenanceStatusCompleted
}

// ParseMaintenanceStatus converts raw input into MaintenanceStatus.
func ParseMaintenanceStatus(value string) (MaintenanceStatus, error) {
	for _, candidate := range validMaintenanceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid maintenance status %q", value)
}
