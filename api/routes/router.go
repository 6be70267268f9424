package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/muniworks/maintenance-backend/api/controllers"
	"github.com/muniworks/maintenance-backend/api/middleware"
	"github.com/muniworks/maintenance-backend/internal/inventory"
	"github.com/muniworks/maintenance-backend/internal/materialrequests"
	"github.com/muniworks/maintenance-backend/internal/notifications"
	"github.com/muniworks/maintenance-backend/internal/purchaserequests"
	"github.com/muniworks/maintenance-backend/pkg/config"
	"github.com/muniworks/maintenance-backend/pkg/db"
	"github.com/muniworks/maintenance-backend/pkg/enums"
	"github.com/muniworks/maintenance-backend/pkg/logger"
	"github.com/muniworks/maintenance-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	inventoryService inventory.Service,
	materialRequestsService materialrequests.Service,
	purchaseRequestsService purchaserequests.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var idemStore redis.IdempotencyStore
	var cachePinger redis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		cachePinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cachePinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", controllers.ListInventoryItems(inventoryService, logg))
				r.With(middleware.RequireRole(logg, enums.MemberRoleWarehouse)).
					Post("/", controllers.CreateInventoryItem(inventoryService, logg))
				r.Get("/{code}", controllers.GetInventoryItem(inventoryService, logg))
				r.Get("/{code}/transactions", controllers.ListItemTransactions(inventoryService, logg))
			})
			r.With(middleware.RequireRole(logg, enums.MemberRoleWarehouse)).
				Post("/transactions", controllers.RecordInventoryTransaction(inventoryService, logg))
		})

		r.Route("/material-requests", func(r chi.Router) {
			r.Get("/", controllers.ListMaterialRequests(materialRequestsService, logg))
			r.Post("/", controllers.CreateMaterialRequest(materialRequestsService, logg))
			r.Get("/{requestId}", controllers.GetMaterialRequest(materialRequestsService, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleSupervisor)).
				Post("/{requestId}/approve", controllers.ApproveMaterialRequest(materialRequestsService, logg))
			r.Post("/{requestId}/receive", controllers.ReceiveMaterialRequest(materialRequestsService, logg))
		})

		r.Route("/purchase-requests", func(r chi.Router) {
			r.Get("/", controllers.ListPurchaseRequests(purchaseRequestsService, logg))
			r.Post("/", controllers.CreatePurchaseRequest(purchaseRequestsService, logg))
			r.Get("/{requestId}", controllers.GetPurchaseRequest(purchaseRequestsService, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleSupervisor)).
				Post("/{requestId}/approve", controllers.ApprovePurchaseRequest(purchaseRequestsService, logg))
			r.Post("/{requestId}/order", controllers.OrderPurchaseRequest(purchaseRequestsService, logg))
			r.Post("/{requestId}/ready-to-deliver", controllers.ReadyToDeliverPurchaseRequest(purchaseRequestsService, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleWarehouse)).
				Post("/{requestId}/complete", controllers.CompletePurchaseRequest(purchaseRequestsService, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleWarehouse)).
				Post("/{requestId}/receive", controllers.ReceivePurchaseRequest(purchaseRequestsService, logg))
			r.Post("/{requestId}/deliver", controllers.DeliverPurchaseRequest(purchaseRequestsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
