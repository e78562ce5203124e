package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mountemart/backend/api/routes"
	"github.com/mountemart/backend/internal/auth"
	"github.com/mountemart/backend/internal/cart"
	"github.com/mountemart/backend/internal/catalog"
	"github.com/mountemart/backend/internal/coupons"
	"github.com/mountemart/backend/internal/droplocations"
	"github.com/mountemart/backend/internal/notifications"
	"github.com/mountemart/backend/internal/orders"
	"github.com/mountemart/backend/internal/payments"
	"github.com/mountemart/backend/internal/pricing"
	"github.com/mountemart/backend/internal/returns"
	"github.com/mountemart/backend/internal/rewards"
	"github.com/mountemart/backend/internal/shipping"
	"github.com/mountemart/backend/internal/users"
	"github.com/mountemart/backend/pkg/auth/session"
	"github.com/mountemart/backend/pkg/config"
	"github.com/mountemart/backend/pkg/db"
	"github.com/mountemart/backend/pkg/esewa"
	"github.com/mountemart/backend/pkg/geo"
	"github.com/mountemart/backend/pkg/khalti"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/migrate"
	"github.com/mountemart/backend/pkg/outbox"
	"github.com/mountemart/backend/pkg/redis"
	pkgstripe "github.com/mountemart/backend/pkg/stripe"
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

	gormDB := dbClient.DB()
	registry := geo.NewRegistry()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	usersRepo := users.NewRepository(gormDB)
	usersService := users.NewService(usersRepo)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo, redisClient, cfg.Redis.TopProductsTTL, cfg.Checkout.SubCategoryMaxDepth, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(catalogService, pricing.NewCalculator(cfg.Checkout.SubCategoryMaxDepth))
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, catalogRepo, pricingService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(coupons.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(rewards.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(shipping.NewRepository(gormDB), registry)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	dropsRepo := droplocations.NewRepository(gormDB)
	dropsService, err := droplocations.NewService(dropsRepo, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to create drop locations service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Lines:    cartRepo,
		Pricer:   pricingService,
		Coupons:  couponsService,
		Rewards:  rewardsService,
		Shipper:  shippingService,
		Catalog:  catalogRepo,
		Drops:    dropsRepo,
		Users:    usersRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Checkout: cfg.Checkout,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	esewaClient, err := esewa.NewClient(cfg.Esewa)
	if err != nil {
		logg.Error(context.Background(), "failed to create esewa client", err)
		os.Exit(1)
	}
	khaltiClient, err := khalti.NewClient(cfg.Khalti)
	if err != nil {
		logg.Error(context.Background(), "failed to create khalti client", err)
		os.Exit(1)
	}
	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Orders:   ordersRepo,
		Lines:    cartRepo,
		Stock:    catalogRepo,
		Payments: payments.NewRepository(gormDB),
		Coupons:  couponsService,
		Rewards:  rewardsService,
		Esewa:    esewaClient,
		Khalti:   khaltiClient,
		Card:     payments.NewCardGateway(stripeClient),
		Notifier: notificationsService,
		Tx:       dbClient,
		Outbox:   outboxService,
		Checkout: cfg.Checkout,
		EsewaCfg: cfg.Esewa,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	returnsService, err := returns.NewService(returns.ServiceParams{
		Repo:   returns.NewRepository(gormDB),
		Orders: ordersRepo,
		Tx:     dbClient,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:          authService,
			Users:         usersService,
			Catalog:       catalogService,
			Cart:          cartService,
			Orders:        ordersService,
			Payments:      paymentsService,
			Shipping:      shippingService,
			Returns:       returnsService,
			Rewards:       rewardsService,
			DropLocations: dropsService,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
