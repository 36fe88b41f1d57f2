package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seifpharma/storefront-gateway/api/controllers"
	"github.com/seifpharma/storefront-gateway/api/middleware"
	authsvc "github.com/seifpharma/storefront-gateway/internal/auth"
	cartsvc "github.com/seifpharma/storefront-gateway/internal/cart"
	checkoutsvc "github.com/seifpharma/storefront-gateway/internal/checkout"
	placessvc "github.com/seifpharma/storefront-gateway/internal/places"
	promosvc "github.com/seifpharma/storefront-gateway/internal/promo"
	"github.com/seifpharma/storefront-gateway/pkg/config"
	"github.com/seifpharma/storefront-gateway/pkg/localstore"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/redis"
)

// NewRouter assembles the HTTP surface. Health and metrics sit outside
// the visitor middleware; everything under /api/v1 runs with a resolved
// session in context.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	store *localstore.Store,
	registry *prometheus.Registry,
	cartService cartsvc.Service,
	promoService promosvc.Service,
	checkoutService checkoutsvc.Service,
	authService authsvc.Service,
	placesService placessvc.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(redisClient, store, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Visitor(store, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(
				"login",
				cfg.RateLimit.LoginLimit,
				cfg.RateLimit.LoginWindow,
				redisClient,
				logg,
			)).Post("/login", controllers.Login(authService, logg))
			r.Post("/logout", controllers.Logout(authService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(cartService, logg))
			r.Get("/count", controllers.CartCount(cartService, logg))
			r.Post("/items", controllers.CartAdd(cartService, logg))
			r.Post("/items/quantity", controllers.CartChangeQuantity(cartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemove(cartService, logg))
		})

		r.Route("/promo", func(r chi.Router) {
			r.Post("/", controllers.PromoApply(promoService, logg))
			r.Get("/", controllers.PromoCurrent(promoService, logg))
			r.Delete("/", controllers.PromoCancel(promoService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(checkoutService, logg))
			r.Get("/", controllers.CheckoutCurrent(checkoutService, logg))
			r.Post("/back", controllers.CheckoutBack(checkoutService, logg))
			r.Post("/city", controllers.CheckoutSelectCity(checkoutService, logg))
			r.Post("/zone", controllers.CheckoutSelectZone(checkoutService, logg))
			r.Post("/confirm-location", controllers.CheckoutConfirmLocation(checkoutService, logg))
			r.Post("/contact", controllers.CheckoutSubmitContact(checkoutService, logg))
			r.Get("/payment-methods", controllers.CheckoutPaymentMethods(checkoutService, logg))
			r.Post("/submit", controllers.CheckoutSubmit(checkoutService, logg))
		})

		r.Get("/cities", controllers.Cities(placesService, logg))

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/locale", controllers.GetLocale(store, logg))
			r.Put("/locale", controllers.SetLocale(store, logg))
		})
	})

	return r
}
