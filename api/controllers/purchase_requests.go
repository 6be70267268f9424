package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/maintenance-backend/api/responses"
	"github.com/muniworks/maintenance-backend/api/validators"
	"github.com/muniworks/maintenance-backend/internal/purchaserequests"
	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
)

type purchaseLineBody struct {
	ItemCode string          `json:"itemCode" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	UnitCost decimal.Decimal `json:"unitCost"`
}

type createPurchaseRequestBody struct {
	MaintenanceScheduleID *string            `json:"maintenanceScheduleId,omitempty"`
	Items                 []purchaseLineBody `json:"items" validate:"required,min=1,dive"`
	SupplierName          *string            `json:"supplierName,omitempty"`
	SupplierContact       *string            `json:"supplierContact,omitempty"`
	Notes                 *string            `json:"notes,omitempty"`
}

// CreatePurchaseRequest registers a direct procurement request.
func CreatePurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPurchaseRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scheduleID, err := optionalUUID(body.MaintenanceScheduleID, "maintenance schedule id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := purchaserequests.CreateInput{
			MaintenanceScheduleID: scheduleID,
			SupplierName:          body.SupplierName,
			SupplierContact:       body.SupplierContact,
			Notes:                 body.Notes,
			RequestedBy:           userID,
		}
		for _, line := range body.Items {
			input.Items = append(input.Items, purchaserequests.PurchaseLine{
				ItemCode: line.ItemCode,
				Quantity: line.Quantity,
				UnitCost: line.UnitCost,
			})
		}

		request, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// GetPurchaseRequest returns one request with its items.
func GetPurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, chi.URLParam(r, "requestId"), "purchase request id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// ListPurchaseRequests pages through requests, optionally filtered by
// schedule and status.
func ListPurchaseRequests(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := purchaserequests.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("schedule_id")); raw != "" {
			scheduleID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid schedule_id"))
				return
			}
			params.ScheduleID = &scheduleID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.PurchaseRequestStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ApprovePurchaseRequest resolves a pending request.
func ApprovePurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "requestId"), "purchase request id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approveRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Approve(r.Context(), id, purchaserequests.ApproveInput{
			Approve:         body.Approve,
			RejectionReason: body.RejectionReason,
			UserID:          userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

type purchaseTransition func(svc purchaserequests.Service, r *http.Request, id, userID uuid.UUID) (*models.PurchaseRequest, error)

func purchaseTransitionHandler(svc purchaserequests.Service, logg *logger.Logger, fn purchaseTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "requestId"), "purchase request id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := fn(svc, r, id, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// OrderPurchaseRequest stamps the supplier order on an approved request.
func OrderPurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransitionHandler(svc, logg, func(svc purchaserequests.Service, r *http.Request, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
		return svc.MarkOrdered(r.Context(), id, userID)
	})
}

// ReadyToDeliverPurchaseRequest moves an approved request to ready_to_deliver.
func ReadyToDeliverPurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransitionHandler(svc, logg, func(svc purchaserequests.Service, r *http.Request, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
		return svc.MarkReadyToDeliver(r.Context(), id, userID)
	})
}

// CompletePurchaseRequest books the purchased materials into stock.
func CompletePurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransitionHandler(svc, logg, func(svc purchaserequests.Service, r *http.Request, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
		return svc.Complete(r.Context(), id, userID)
	})
}

// ReceivePurchaseRequest is the legacy completion path that also accepts
// approved requests.
func ReceivePurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransitionHandler(svc, logg, func(svc purchaserequests.Service, r *http.Request, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
		return svc.Receive(r.Context(), id, userID)
	})
}

// DeliverPurchaseRequest confirms the completed purchase reached its destination.
func DeliverPurchaseRequest(svc purchaserequests.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransitionHandler(svc, logg, func(svc purchaserequests.Service, r *http.Request, id, userID uuid.UUID) (*models.PurchaseRequest, error) {
		return svc.Deliver(r.Context(), id, userID)
	})
}
