package enums

import "fmt"

// MaterialRequestItemStatus maps to the material_request_item_status enum in Postgres.
type MaterialRequestItemStatus string

const (
	MaterialRequestItemStatusPending   MaterialRequestItemStatus = "pending"
	MaterialRequestItemStatusApproved  MaterialRequestItemStatus = "approved"
	MaterialRequestItemStatusRejected  MaterialRequestItemStatus = "rejected"
	MaterialRequestItemStatusFulfilled MaterialRequestItemStatus = "fulfilled"
)

var validMaterialRequestItemStatuses = []MaterialRequestItemStatus{
	MaterialRequestItemStatusPending,
	MaterialRequestItemStatusApproved,
	MaterialRequestItemStatusRejected,
	MaterialRequestItemStatusFulfilled,
}

// IsValid reports whether the value matches the canonical enum.
func (s MaterialRequestItemStatus) IsValid() bool {
	for _, candidate := range validMaterialRequestItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMaterialRequestItemStatus converts raw input into MaterialRequestItemStatus.
func ParseMaterialRequestItemStatus(value string) (MaterialRequestItemStatus, error) {
	for _, candidate := range validMaterialRequestItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material request item status %q", value)
}

// MaterialRequestType classifies how a requested line is satisfied. Purchase
// shortfalls never persist material request items, so usage is the only
// stored value; the type exists so the column stays self-describing.
type MaterialRequestType string

const (
	MaterialRequestTypeUsage MaterialRequestType = "usage"
)

// IsValid reports whether the value matches the canonical enum.
func (t MaterialRequestType) IsValid() bool {
	return t == MaterialRequestTypeUsage
}
