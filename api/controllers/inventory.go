package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/muniworks/maintenance-backend/api/responses"
	"github.com/muniworks/maintenance-backend/api/validators"
	"github.com/muniworks/maintenance-backend/internal/inventory"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	pkgerrors "github.com/muniworks/maintenance-backend/pkg/errors"
	"github.com/muniworks/maintenance-backend/pkg/logger"
)

type createInventoryItemBody struct {
	Code             string           `json:"code" validate:"required,min=1,max=64"`
	Name             string           `json:"name" validate:"required,min=1,max=255"`
	CategoryID       *string          `json:"categoryId,omitempty"`
	MinimumThreshold int              `json:"minimumThreshold" validate:"min=0"`
	UnitCost         *decimal.Decimal `json:"unitCost,omitempty"`
}

type recordTransactionBody struct {
	ItemCode  string  `json:"itemCode" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	Quantity  int     `json:"quantity" validate:"min=0"`
	Reference *string `json:"reference,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// CreateInventoryItem registers a new material in the catalog.
func CreateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createInventoryItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := optionalUUID(body.CategoryID, "category id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), inventory.CreateItemInput{
			Code:             body.Code,
			Name:             validators.SanitizeString(body.Name, 255),
			CategoryID:       categoryID,
			MinimumThreshold: body.MinimumThreshold,
			UnitCost:         body.UnitCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// GetInventoryItem returns one item by code.
func GetInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.GetItem(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ListInventoryItems pages through the catalog ordered by code.
func ListInventoryItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := inventory.ListItemsParams{
			Limit:     limit,
			AfterCode: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("low_stock")); raw != "" {
			value, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid low_stock value"))
				return
			}
			params.LowStockOnly = value
		}

		resp, err := svc.ListItems(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ListItemTransactions returns one item's ledger, newest first.
func ListItemTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ListTransactions(r.Context(), inventory.ListTransactionsParams{
			ItemCode: chi.URLParam(r, "code"),
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// RecordInventoryTransaction applies one manual ledger write. Usage and
// purchase movements are reserved for the request workflows.
func RecordInventoryTransaction(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body recordTransactionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txType, err := enums.ParseTransactionType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}
		switch txType {
		case enums.TransactionTypeIn, enums.TransactionTypeOut, enums.TransactionTypeAdjustment:
		default:
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "transaction type not allowed for manual entry"))
			return
		}

		txn, err := svc.ApplyTransaction(r.Context(), inventory.ApplyInput{
			ItemCode:  body.ItemCode,
			Type:      txType,
			Quantity:  body.Quantity,
			UserID:    userID,
			Reference: body.Reference,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
