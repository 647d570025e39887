// Package http wires the PlantPal REST API: authentication, account
// endpoints, and the soil-moisture ingestion and query surface.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carlajeanne/plantpal-backend/internal/domain"
	"github.com/carlajeanne/plantpal-backend/internal/service"
	"github.com/carlajeanne/plantpal-backend/pkg/health"
	pkgmiddleware "github.com/carlajeanne/plantpal-backend/pkg/middleware"
)

const requestTimeout = 10 * time.Second

// RouterConfig carries the handler-level knobs the router needs.
type RouterConfig struct {
	ServiceName        string
	CORSAllowedOrigins []string
	DeviceAPIKey       string
}

// NewRouter assembles the full route tree with the standard middleware
// chain.
func NewRouter(
	cfg RouterConfig,
	authSvc *service.AuthService,
	readingSvc *service.ReadingService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) chi.Router {
	authHandler := NewAuthHandler(authSvc, logger)
	readingHandler := NewReadingHandler(readingSvc, logger)
	userHandler := NewUserHandler(authSvc, logger)

	requireAuth := pkgmiddleware.Auth(func(token string) (*pkgmiddleware.Claims, error) {
		claims, err := authSvc.VerifyAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &pkgmiddleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	})

	r := chi.NewRouter()

	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(cors(cfg.CORSAllowedOrigins))
	r.Use(requireJSONContentType)

	r.Get("/healthz", healthHandler.LivenessHandler())
	r.Get("/readyz", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.Refresh)
			r.Post("/verify-token", authHandler.Verify)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.Route("/readings", func(r chi.Router) {
			// Ingestion is unauthenticated apart from the optional device
			// key; the sensors cannot hold user credentials. The read side
			// is public too: the dashboard polls it before login.
			r.With(deviceKey(cfg.DeviceAPIKey, logger)).Post("/", readingHandler.Record)
			r.Get("/", readingHandler.List)
			r.Get("/latest", readingHandler.Latest)
			r.Get("/stats", readingHandler.Stats)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.Me)
			r.With(pkgmiddleware.RequireRole(domain.RoleAdmin)).Get("/", userHandler.List)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	return r
}
