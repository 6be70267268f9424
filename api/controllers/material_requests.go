package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/muniworks/maintenance-backend/api/responses"
	"github.com/muniworks/maintenance-backend/api/validators"
	"github.com/muniworks/maintenance-backend/internal/materialrequests"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
)

type materialRequestLineBody struct {
	ItemCode string `json:"itemCode" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type createMaterialRequestBody struct {
	MaintenanceScheduleID string                    `json:"maintenanceScheduleId" validate:"required,uuid"`
	Items                 []materialRequestLineBody `json:"items" validate:"required,min=1,dive"`
	Notes                 *string                   `json:"notes,omitempty"`
}

type approveRequestBody struct {
	Approve         bool    `json:"approve"`
	RejectionReason *string `json:"rejectionReason,omitempty"`
}

type receiveMaterialRequestBody struct {
	Notes *string `json:"notes,omitempty"`
}

// CreateMaterialRequest splits requested quantities into a stock-backed
// material request and, when stock falls short, a sibling purchase request.
func CreateMaterialRequest(svc materialrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createMaterialRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scheduleID, err := uuid.Parse(body.MaintenanceScheduleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid maintenance schedule id"))
			return
		}

		input := materialrequests.CreateInput{
			MaintenanceScheduleID: scheduleID,
			Notes:                 body.Notes,
			RequestedBy:           userID,
		}
		for _, line := range body.Items {
			input.Items = append(input.Items, materialrequests.RequestedItem{
				ItemCode: line.ItemCode,
				Quantity: line.Quantity,
			})
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetMaterialRequest returns one request with its items.
func GetMaterialRequest(svc materialrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, chi.URLParam(r, "requestId"), "material request id")
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

// ListMaterialRequests pages through requests, optionally filtered by
// schedule and status.
func ListMaterialRequests(svc materialrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := materialrequests.ListParams{
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
			status := enums.MaterialRequestStatus(raw)
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

// ApproveMaterialRequest resolves a pending request. Approval deducts stock;
// rejection releases the reservation.
func ApproveMaterialRequest(svc materialrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "requestId"), "material request id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approveRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Approve(r.Context(), id, materialrequests.ApproveInput{
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

// ReceiveMaterialRequest confirms physical delivery of approved materials.
func ReceiveMaterialRequest(svc materialrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "requestId"), "material request id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body receiveMaterialRequestBody
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		request, err := svc.Receive(r.Context(), id, materialrequests.ReceiveInput{
			Notes:  body.Notes,
			UserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
