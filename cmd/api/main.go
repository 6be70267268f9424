package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/api/routes"
	"github.com/muniworks/maintenance-backend/internal/inventory"
	"github.com/muniworks/maintenance-backend/internal/maintenance"
	"github.com/muniworks/maintenance-backend/internal/materialrequests"
	"github.com/muniworks/maintenance-backend/internal/notifications"
	"github.com/muniworks/maintenance-backend/internal/purchaserequests"
	"github.com/muniworks/maintenance-backend/pkg/config"
	"github.com/muniworks/maintenance-backend/pkg/db"
	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/logger"
	"github.com/muniworks/maintenance-backend/pkg/migrate"
	"github.com/muniworks/maintenance-backend/pkg/outbox"
	"github.com/muniworks/maintenance-backend/pkg/redis"
)

// purchaseCreatorProxy breaks the construction cycle between the material
// request and purchase request services. The material request workflow only
// calls it after main finished wiring.
type purchaseCreatorProxy struct {
	target materialrequests.PurchaseCreator
}

func (p *purchaseCreatorProxy) CreateForShortfall(ctx context.Context, tx *gorm.DB, input materialrequests.ShortfallInput) (*models.PurchaseRequest, error) {
	return p.target.CreateForShortfall(ctx, tx, input)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	notificationsService, err := notifications.NewService(
		notifications.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(
		inventory.NewRepository(gormDB), dbClient, notificationsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	maintenanceRepo := maintenance.NewRepository(gormDB)
	cascade, err := maintenance.NewCascade(maintenanceRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance cascade", err)
		os.Exit(1)
	}

	purchaseProxy := &purchaseCreatorProxy{}
	materialRequestsService, err := materialrequests.NewService(
		materialrequests.NewRepository(gormDB),
		dbClient,
		inventoryService,
		purchaseProxy,
		maintenanceRepo,
		cascade,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create material requests service", err)
		os.Exit(1)
	}

	purchaseRequestsService, err := purchaserequests.NewService(
		purchaserequests.NewRepository(gormDB),
		dbClient,
		inventoryService,
		materialRequestsService,
		maintenanceRepo,
		cascade,
		notificationsService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase requests service", err)
		os.Exit(1)
	}
	purchaseProxy.target = purchaseRequestsService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			inventoryService,
			materialRequestsService,
			purchaseRequestsService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
