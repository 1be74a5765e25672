package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/agricorus/agricorus-backend/api/routes"
	"github.com/agricorus/agricorus-backend/internal/auth"
	"github.com/agricorus/agricorus-backend/internal/disputes"
	"github.com/agricorus/agricorus-backend/internal/lands"
	"github.com/agricorus/agricorus-backend/internal/leasepayments"
	"github.com/agricorus/agricorus-backend/internal/leasing"
	"github.com/agricorus/agricorus-backend/internal/notifications"
	"github.com/agricorus/agricorus-backend/internal/payoutmethods"
	"github.com/agricorus/agricorus-backend/internal/payouts"
	"github.com/agricorus/agricorus-backend/internal/users"
	"github.com/agricorus/agricorus-backend/pkg/auth/session"
	"github.com/agricorus/agricorus-backend/pkg/config"
	"github.com/agricorus/agricorus-backend/pkg/db"
	"github.com/agricorus/agricorus-backend/pkg/logger"
	"github.com/agricorus/agricorus-backend/pkg/migrate"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/razorpay"
	"github.com/agricorus/agricorus-backend/pkg/redis"
)

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin register service", err)
		os.Exit(1)
	}

	landService, err := lands.NewService(lands.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create land service", err)
		os.Exit(1)
	}

	leasingService, err := leasing.NewService(leasing.NewRepository(dbClient.DB()), nil, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create leasing service", err)
		os.Exit(1)
	}

	paymentService, err := leasepayments.NewService(leasepayments.NewRepository(dbClient.DB()), gateway, dbClient, outboxSvc, nil, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create lease payment service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.NewRepository(dbClient.DB()), nil, nil, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	payoutMethodService, err := payoutmethods.NewService(payoutmethods.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout method service", err)
		os.Exit(1)
	}

	disputeService, err := disputes.NewService(disputes.NewRepository(dbClient.DB()), nil, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispute service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

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
		Handler: routes.NewRouter(cfg, logg, redisClient, sessionManager, routes.Services{
			Auth:          authService,
			Register:      registerService,
			AdminRegister: adminRegisterService,
			Lands:         landService,
			Leasing:       leasingService,
			Payments:      paymentService,
			Payouts:       payoutService,
			PayoutMethods: payoutMethodService,
			Disputes:      disputeService,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
