package handler

import (
	"net/http"
	"time"

	"github.com/qrlink/qrlink-go/internal/infra/observability"
	"github.com/qrlink/qrlink-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Config carries the handler-level settings the router needs.
type Config struct {
	// PublicBaseURL is the origin embedded in scan URLs.
	PublicBaseURL string
	// RedirectDelay is the pause the scan page applies before navigating.
	RedirectDelay time.Duration
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	optSvc *service.ProfileOptionService,
	resolver *service.Resolver,
	authSvc *service.AuthService,
	cfg Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Public scan surface ---
	r.Get("/r/{qrID}", redirectHandler(resolver, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public resolution endpoint for the scan page.
		r.Get("/resolve/{qrID}", resolveHandler(resolver, cfg.RedirectDelay, logger))

		// Resolver metrics snapshot.
		r.Get("/metrics/resolver", resolverMetricsHandler(metrics))

		// Authentication.
		r.Post("/auth/register", authRegisterHandler(authSvc, logger))
		r.Post("/auth/login", authLoginHandler(authSvc, logger))
		r.Post("/auth/refresh", authRefreshHandler(authSvc, logger))

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Post("/auth/logout", authLogoutHandler(authSvc, logger))
			r.Get("/me", meHandler(authSvc, logger))
			r.Get("/me/qr", qrOverviewHandler(optSvc, cfg.PublicBaseURL, logger))

			r.Get("/options", listOptionsHandler(optSvc, logger))
			r.Post("/options", createOptionHandler(optSvc, logger))
			r.Delete("/options/{optionID}", deleteOptionHandler(optSvc, logger))
			r.Post("/options/{optionID}/activate", activateOptionHandler(optSvc, logger))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func resolverMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetResolverSnapshot())
	}
}
