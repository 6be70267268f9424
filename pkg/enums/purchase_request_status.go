package enums

import "fmt"

// PurchaseRequestStatus maps to the purchase_request_status enum in Postgres.
//
// The machine is linear: pending -> approved -> ready_to_deliver ->
// completed -> delivered, with pending -> rejected as the only early exit.
// Ordered-ness is a sub-state of approved tracked by the ordered_at stamp,
// not a separate enum value.
type PurchaseRequestStatus string

const (
	PurchaseRequestStatusPending        PurchaseRequestStatus = "pending"
	PurchaseRequestStatusApproved       PurchaseRequestStatus = "approved"
	PurchaseRequestStatusReadyToDeliver PurchaseRequestStatus = "ready_to_deliver"
	PurchaseRequestStatusCompleted      PurchaseRequestStatus = "completed"
	PurchaseRequestStatusDelivered      PurchaseRequestStatus = "delivered"
	PurchaseRequestStatusRejected       PurchaseRequestStatus = "rejected"

	// Legacy terminal values written by earlier releases through the receive
	// path. Normalized to completed on read, never written.
	purchaseRequestStatusLegacyReceived       PurchaseRequestStatus = "received"
	purchaseRequestStatusLegacyArrivedInStock PurchaseRequestStatus = "arrived_in_stock"
)

var validPurchaseRequestStatuses = []PurchaseRequestStatus{
	PurchaseRequestStatusPending,
	PurchaseRequestStatusApproved,
	PurchaseRequestStatusReadyToDeliver,
	PurchaseRequestStatusCompleted,
	PurchaseRequestStatusDelivered,
	PurchaseRequestStatusRejected,
}

// IsValid reports whether the value matches the canonical enum.
func (s PurchaseRequestStatus) IsValid() bool {
	for _, candidate := range validPurchaseRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s PurchaseRequestStatus) IsTerminal() bool {
	switch s.Normalize() {
	case PurchaseRequestStatusDelivered, PurchaseRequestStatusRejected:
		return true
	}
	return false
}

// Normalize maps legacy stored values onto the canonical enum.
func (s PurchaseRequestStatus) Normalize() PurchaseRequestStatus {
	switch s {
	case purchaseRequestStatusLegacyReceived, purchaseRequestStatusLegacyArrivedInStock:
		return PurchaseRequestStatusCompleted
	}
	return s
}

// ParsePurchaseRequestStatus converts raw input into PurchaseRequestStatus.
func ParsePurchaseRequestStatus(value string) (PurchaseRequestStatus, error) {
	normalized := PurchaseRequestStatus(value).Normalize()
	for _, candidate := range validPurchaseRequestStatuses {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase request status %q", value)
}
