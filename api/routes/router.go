package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mountemart/backend/api/controllers"
	"github.com/mountemart/backend/api/middleware"
	authsvc "github.com/mountemart/backend/internal/auth"
	"github.com/mountemart/backend/internal/cart"
	"github.com/mountemart/backend/internal/catalog"
	"github.com/mountemart/backend/internal/droplocations"
	"github.com/mountemart/backend/internal/notifications"
	"github.com/mountemart/backend/internal/orders"
	"github.com/mountemart/backend/internal/payments"
	"github.com/mountemart/backend/internal/returns"
	"github.com/mountemart/backend/internal/rewards"
	"github.com/mountemart/backend/internal/shipping"
	"github.com/mountemart/backend/internal/users"
	"github.com/mountemart/backend/pkg/auth/session"
	"github.com/mountemart/backend/pkg/config"
	"github.com/mountemart/backend/pkg/db"
	"github.com/mountemart/backend/pkg/logger"
	pkgredis "github.com/mountemart/backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth          authsvc.Service
	Users         users.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Orders        orders.Service
	Payments      payments.Service
	Shipping      shipping.Service
	Returns       returns.Service
	Rewards       rewards.Service
	DropLocations droplocations.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	checkoutPolicy := middleware.NewAuthRateLimitPolicy(
		"checkout",
		cfg.AuthRateLimit.CheckoutWindow,
		cfg.AuthRateLimit.CheckoutIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(svcs.Auth, logg))
	})

	// Public catalog and order tracking.
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/products/top", controllers.TopProducts(svcs.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svcs.Catalog, logg))
		r.Post("/orders/track", controllers.TrackOrder(svcs.Orders, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(svcs.Cart, logg))
			r.Get("/summary", controllers.CartSummary(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{lineItemId}", controllers.CartUpdateQuantity(svcs.Cart, logg))
			r.Delete("/items/{lineItemId}", controllers.CartRemoveItem(svcs.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(svcs.Orders, logg))
			r.Put("/shipping", controllers.CheckoutShipping(svcs.Orders, logg))
			r.Put("/cashback", controllers.CheckoutCashback(svcs.Orders, logg))
			r.With(middleware.AuthRateLimit(checkoutPolicy, redisClient, logg)).
				Post("/confirm", controllers.CheckoutConfirm(svcs.Payments, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/pending", controllers.PendingOrder(svcs.Orders, logg))
			r.Get("/history", controllers.OrderHistory(svcs.Orders, logg))
			r.Get("/current", controllers.CurrentOrders(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.Post("/{orderId}/returns", controllers.RequestReturn(svcs.Returns, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.MyReturns(svcs.Returns, logg))
			r.Post("/{returnId}/cancel", controllers.CancelReturn(svcs.Returns, logg))
		})

		r.Route("/drop-locations", func(r chi.Router) {
			r.Get("/", controllers.DropLocationList(svcs.DropLocations, logg))
			r.Post("/", controllers.DropLocationCreate(svcs.DropLocations, logg))
			r.Put("/{dropLocationId}", controllers.DropLocationUpdate(svcs.DropLocations, logg))
			r.Delete("/{dropLocationId}", controllers.DropLocationDelete(svcs.DropLocations, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(svcs.Users, logg))
			r.Put("/cashback", controllers.SetCashbackPreference(svcs.Users, logg))
			r.Get("/rewards", controllers.RewardBalance(svcs.Rewards, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireStaff(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderByCode(svcs.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminSetOrderStatus(svcs.Orders, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.AdminListReturns(svcs.Returns, logg))
			r.Put("/{returnId}/status", controllers.AdminSetReturnStatus(svcs.Returns, logg))
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/free-delivery-zones", controllers.AdminListFreeDeliveryZones(svcs.Shipping, logg))
			r.Post("/free-delivery-zones", controllers.AdminAddFreeDeliveryZone(svcs.Shipping, logg))
			r.Get("/standard-rates", controllers.AdminListStandardRates(svcs.Shipping, logg))
			r.Put("/standard-rates", controllers.AdminSetStandardRate(svcs.Shipping, logg))
			r.Get("/express-zones", controllers.AdminListExpressZones(svcs.Shipping, logg))
			r.Post("/express-zones", controllers.AdminAddExpressZone(svcs.Shipping, logg))
			r.Get("/express-charges", controllers.AdminListExpressCharges(svcs.Shipping, logg))
			r.Put("/express-charges", controllers.AdminSetExpressCharge(svcs.Shipping, logg))
			r.Get("/forbidden-deliveries", controllers.AdminListForbiddenDeliveries(svcs.Shipping, logg))
			r.Post("/forbidden-deliveries", controllers.AdminAddForbiddenDelivery(svcs.Shipping, logg))
		})
	})

	return r
}
