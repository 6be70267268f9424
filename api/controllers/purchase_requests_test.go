package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/internal/materialrequests"
	"github.com/muniworks/maintenance-backend/internal/purchaserequests"
	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
)

type stubPurchaseService struct {
	created   *purchaserequests.CreateInput
	completed bool
	delivered bool
}

func (s *stubPurchaseService) CreateForShortfall(context.Context, *gorm.DB, materialrequests.ShortfallInput) (*models.PurchaseRequest, error) {
	return &models.PurchaseRequest{}, nil
}

func (s *stubPurchaseService) Create(_ context.Context, input purchaserequests.CreateInput) (*models.PurchaseRequest, error) {
	s.created = &input
	return &models.PurchaseRequest{Status: enums.PurchaseRequestStatusPending}, nil
}

func (s *stubPurchaseService) Approve(context.Context, uuid.UUID, purchaserequests.ApproveInput) (*models.PurchaseRequest, error) {
	return &models.PurchaseRequest{Status: enums.PurchaseRequestStatusApproved}, nil
}

func (s *stubPurchaseService) MarkOrdered(context.Context, uuid.UUID, uuid.UUID) (*models.PurchaseRequest, error) {
	return &models.PurchaseRequest{}, nil
}

func (s *stubPurchaseService) MarkReadyToDeliver(context.Context, uuid.UUID, uuid.UUID) (*models.PurchaseRequest, error) {
	return &models.PurchaseRequest{}, nil
}

func (s *stubPurchaseService) Complete(context.Context, uuid.UUID, uuid.UUID) (*models.PurchaseRequest, error) {
	s.completed = true
	return &models.PurchaseRequest{Status: enums.PurchaseRequestStatusCompleted}, nil
}

func (s *stubPurchaseService) Receive(context.Context, uuid.UUID, uuid.UUID) (*models.PurchaseRequest, error) {
	return &models.PurchaseRequest{Status: enums.PurchaseRequestStatusCompleted}, nil
}

func (s *stubPurchaseService) Deliver(context.Context, uuid.UUID, uuid.UUID) (*models.PurchaseRequest, error) {
	s.delivered = true
	return &models.PurchaseRequest{Status: enums.PurchaseRequestStatusDelivered}, nil
}

func (s *stubPurchaseService) Get(context.Context, uuid.UUID) (*models.PurchaseRequest, error) {
	return &models.PurchaseRequest{}, nil
}

func (s *stubPurchaseService) List(context.Context, purchaserequests.ListParams) (*purchaserequests.ListResult, error) {
	return &purchaserequests.ListResult{}, nil
}

func purchaseRouter(svc purchaserequests.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/purchase-requests", CreatePurchaseRequest(svc, nil))
	r.Post("/purchase-requests/{requestId}/complete", CompletePurchaseRequest(svc, nil))
	r.Post("/purchase-requests/{requestId}/deliver", DeliverPurchaseRequest(svc, nil))
	return r
}

func TestCreatePurchaseRequestForwardsCosts(t *testing.T) {
	svc := &stubPurchaseService{}
	router := purchaseRouter(svc)

	req := authedRequest(http.MethodPost, "/purchase-requests",
		`{"items":[{"itemCode":"PIPE-050","quantity":3,"unitCost":"12.50"}],"supplierName":"City Depot"}`)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil || len(svc.created.Items) != 1 {
		t.Fatalf("create input not forwarded: %+v", svc.created)
	}
	if !svc.created.Items[0].UnitCost.Equal(decimal.NewFromFloat(12.50)) {
		t.Fatalf("unit cost lost: %s", svc.created.Items[0].UnitCost)
	}
	if svc.created.SupplierName == nil || *svc.created.SupplierName != "City Depot" {
		t.Fatalf("supplier lost: %+v", svc.created)
	}
}

func TestCreatePurchaseRequestRejectsEmptyItems(t *testing.T) {
	router := purchaseRouter(&stubPurchaseService{})

	req := authedRequest(http.MethodPost, "/purchase-requests", `{"items":[]}`)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCompleteAndDeliverUsePathID(t *testing.T) {
	svc := &stubPurchaseService{}
	router := purchaseRouter(svc)

	req := authedRequest(http.MethodPost, "/purchase-requests/"+uuid.NewString()+"/complete", "")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !svc.completed {
		t.Fatalf("complete failed: %d", resp.Code)
	}

	req = authedRequest(http.MethodPost, "/purchase-requests/"+uuid.NewString()+"/deliver", "")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !svc.delivered {
		t.Fatalf("deliver failed: %d", resp.Code)
	}
}

func TestPurchaseTransitionsRejectBadID(t *testing.T) {
	router := purchaseRouter(&stubPurchaseService{})

	req := authedRequest(http.MethodPost, "/purchase-requests/not-a-uuid/complete", "")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
