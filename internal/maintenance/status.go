package maintenance

import (
	"time"

	"github.com/muniworks/maintenance-backend/pkg/enums"
)

// Outcome is the result of deriving a schedule status from its requests.
type Outcome struct {
	Status       enums.MaintenanceStatus
	SetStartedAt bool
	Changed      bool
}

// statusRank orders the cascade-owned statuses so a derivation can never
// move a schedule backward.
var statusRank = map[enums.MaintenanceStatus]int{
	enums.MaintenanceStatusRequested:        0,
	enums.MaintenanceStatusPartiallyStarted: 1,
	enums.MaintenanceStatusStarted:          2,
}

// ComputeStatus derives the schedule status from the statuses of its linked
// material and purchase requests. Pure; the caller persists the outcome.
//
// A material request counts as done once its stock effect is settled
// (awaiting delivery, delivered or fulfilled). A purchase request counts as
// done once its materials arrived (completed or delivered). Rejected
// requests are ignored on both sides so a rejection can never block a
// schedule from starting, and a schedule only advances when at least one
// non-rejected request is done. Statuses owned by the maintenance collaborator
// (paused, completed) are never overwritten, and started_at is set at most
// once.
func ComputeStatus(current enums.MaintenanceStatus, startedAt *time.Time, materials []enums.MaterialRequestStatus, purchases []enums.PurchaseRequestStatus) Outcome {
	if current.OwnedByCollaborator() {
		return Outcome{Status: current}
	}

	materialsDone := true
	doneRequests := 0
	for _, status := range materials {
		switch status.Normalize() {
		case enums.MaterialRequestStatusRejected:
			continue
		case enums.MaterialRequestStatusAwaitingDelivery,
			enums.MaterialRequestStatusDelivered,
			enums.MaterialRequestStatusFulfilled:
			doneRequests++
			continue
		default:
			materialsDone = false
		}
	}

	openPurchases := 0
	purchasesDone := true
	for _, status := range purchases {
		normalized := status.Normalize()
		if normalized == enums.PurchaseRequestStatusRejected {
			continue
		}
		openPurchases++
		switch normalized {
		case enums.PurchaseRequestStatusCompleted, enums.PurchaseRequestStatusDelivered:
			doneRequests++
			continue
		default:
			purchasesDone = false
		}
	}

	derived := current
	switch {
	case doneRequests == 0:
		// Nothing has actually progressed. A schedule whose every request
		// was rejected (or that has no requests) keeps its prior status.
	case materialsDone && purchasesDone:
		derived = enums.MaintenanceStatusStarted
	case materialsDone && openPurchases > 0:
		derived = enums.MaintenanceStatusPartiallyStarted
	}

	if statusRank[derived] < statusRank[current] {
		derived = current
	}

	setStartedAt := startedAt == nil &&
		(derived == enums.MaintenanceStatusStarted || derived == enums.MaintenanceStatusPartiallyStarted)

	return Outcome{
		Status:       derived,
		SetStartedAt: setStartedAt,
		Changed:      derived != current || setStartedAt,
	}
}
