package enums

import "fmt"

// MaterialRequestStatus maps to the material_request_status enum in Postgres.
type MaterialRequestStatus string

const (
	MaterialRequestStatusPending          MaterialRequestStatus = "pending"
	MaterialRequestStatusAwaitingDelivery MaterialRequestStatus = "awaiting_delivery"
	MaterialRequestStatusDelivered        MaterialRequestStatus = "delivered"
	MaterialRequestStatusFulfilled        MaterialRequestStatus = "fulfilled"
	MaterialRequestStatusRejected         MaterialRequestStatus = "rejected"

	// materialRequestStatusLegacyApproved was written by an earlier release
	// before the awaiting_delivery rename. Normalized on read, never written.
	materialRequestStatusLegacyApproved MaterialRequestStatus = "approved"
)

var validMaterialRequestStatuses = []MaterialRequestStatus{
	MaterialRequestStatusPending,
	MaterialRequestStatusAwaitingDelivery,
	MaterialRequestStatusDelivered,
	MaterialRequestStatusFulfilled,
	MaterialRequestStatusRejected,
}

// IsValid reports whether the value matches the canonical enum.
func (s MaterialRequestStatus) IsValid() bool {
	for _, candidate := range validMaterialRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s MaterialRequestStatus) IsTerminal() bool {
	switch s.Normalize() {
	case MaterialRequestStatusDelivered, MaterialRequestStatusFulfilled, MaterialRequestStatusRejected:
		return true
	}
	return false
}

// Normalize maps legacy stored values onto the canonical enum.
func (s MaterialRequestStatus) Normalize() MaterialRequestStatus {
	if s == materialRequestStatusLegacyApproved {
		return MaterialRequestStatusAwaitingDelivery
	}
	return s
}

// ParseMaterialRequestStatus converts raw input into MaterialRequestStatus.
func ParseMaterialRequestStatus(value string) (MaterialRequestStatus, error) {
	normalized := MaterialRequestStatus(value).Normalize()
	for _, candidate := range validMaterialRequestStatuses {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material request status %q", value)
}
