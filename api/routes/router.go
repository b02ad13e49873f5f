package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vendorverse/api/controllers"
	"github.com/angelmondragon/vendorverse/api/middleware"
	"github.com/angelmondragon/vendorverse/internal/storefront"
	"github.com/angelmondragon/vendorverse/pkg/config"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

// RateLimiter counts auth attempts. Pass nil to run without limits.
type RateLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	metricsRegistry *prometheus.Registry,
	manager *storefront.Manager,
	limiter RateLimiter,
	readiness map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
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
	clientPolicy := middleware.NewAuthRateLimitPolicy(
		"client",
		cfg.AuthRateLimit.ClientWindow,
		cfg.AuthRateLimit.ClientIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	cat := manager.Catalog()

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(clientPolicy, limiter, logg)).Post("/client", controllers.ClientIssue(cfg.ClientToken, logg))

		r.Get("/categories", controllers.CategoriesList(cat, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(cat, logg))
			r.Get("/featured", controllers.ProductsFeatured(cat, cfg.Catalog.FeaturedCount, logg))
			r.Get("/{productID}", controllers.ProductGet(cat, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.ClientToken(cfg.ClientToken, logg))

			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(manager, logg))
				r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(manager, logg))
				r.Post("/logout", controllers.AuthLogout(manager, logg))
				r.Get("/me", controllers.AuthMe(manager, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(manager, logg))
				r.Delete("/", controllers.CartClear(manager, logg))
				r.Post("/items", controllers.CartAddItem(manager, logg))
				r.Patch("/items/{productID}", controllers.CartUpdateItem(manager, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(manager, logg))
			})
		})
	})

	return r
}
