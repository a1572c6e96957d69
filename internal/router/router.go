package router

import (
	"net/http"
	"time"

	"scholarhub/internal/config"
	"scholarhub/internal/contextutils"
	"scholarhub/internal/metrics"
	"scholarhub/internal/middleware"
	"scholarhub/internal/monitoring"
	"scholarhub/internal/realtime"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	_ "scholarhub/internal/docs" // registers the swagger spec

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options carries the optional collaborators of the HTTP surface.
type Options struct {
	Hub         *realtime.Hub
	Dashboard   *monitoring.Dashboard
	RateLimiter *middleware.RateLimiter
}

// SetupRouter configures all HTTP routes and returns the main handler
func SetupRouter(
	serviceCollection *services.ServiceCollection,
	authMiddleware *middleware.AuthMiddleware,
	responseBuilder *response.Builder,
	logger *zap.Logger,
	opts Options,
) http.Handler {
	cfg := serviceCollection.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := chi.NewRouter()
	r.NotFound(middleware.NotFoundHandler(responseBuilder))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(responseBuilder))

	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Recovery(middleware.DefaultRecoveryConfig(), responseBuilder))
	r.Use(middleware.StructuredLogging(middleware.DefaultLoggingConfig()))
	r.Use(middleware.Metrics())
	r.Use(chimw.CleanPath)
	r.Use(middleware.SecurityHeaders(securityConfig(cfg)))
	r.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.Security)))
	if opts.RateLimiter != nil {
		r.Use(middleware.RateLimit(opts.RateLimiter))
	}
	r.Use(middleware.Maintenance(cfg.Features.MaintenanceMode, responseBuilder))
	r.Use(middleware.ValidateRequest(validationConfig(cfg), responseBuilder))
	r.Use(response.Middleware(responseBuilder))

	SetupMonitoringRoutes(r, cfg, opts.Dashboard, authMiddleware)

	if cfg.Monitoring.EnableSwagger {
		swagger := middleware.DefaultSwaggerConfig()
		swagger.Username = cfg.Security.SwaggerUsername
		swagger.Password = cfg.Security.SwaggerPassword
		r.Get("/swagger", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/swagger/index.html", http.StatusMovedPermanently)
		})
		r.Handle("/swagger/*", middleware.SwaggerHandler(swagger))
	}

	if opts.Hub != nil && cfg.Realtime.Enabled {
		r.With(authMiddleware.RequireAuth()).Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			opts.Hub.ServeWS(w, req, contextutils.GetPrincipal(req.Context()))
		})
	}

	r.Route("/api/v1", func(api chi.Router) {
		timeout := cfg.Server.WriteTimeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		api.Use(chimw.Timeout(timeout))
		AddAPIv1Routes(api, serviceCollection, authMiddleware, responseBuilder, logger)
	})

	logger.Info("Router setup completed",
		zap.Bool("swagger", cfg.Monitoring.EnableSwagger),
		zap.Bool("metrics", cfg.Monitoring.EnableMetrics),
		zap.Bool("realtime", opts.Hub != nil && cfg.Realtime.Enabled),
		zap.Bool("maintenance", cfg.Features.MaintenanceMode),
	)

	return r
}

// SetupMonitoringRoutes mounts health and metrics endpoints.
func SetupMonitoringRoutes(r chi.Router, cfg *config.Config, dashboard *monitoring.Dashboard, authMiddleware *middleware.AuthMiddleware) {
	healthPath := cfg.Monitoring.HealthCheckPath
	if healthPath == "" {
		healthPath = "/health"
	}
	if dashboard != nil {
		r.Get(healthPath, dashboard.HealthHandler)
		r.With(authMiddleware.RequireAuth(), authMiddleware.RequireBackOffice()).
			Get(healthPath+"/details", dashboard.DetailsHandler)
	}

	if cfg.Monitoring.EnableMetrics {
		metricsPath := cfg.Monitoring.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Handle(metricsPath, metrics.Handler())
	}
}

func securityConfig(cfg *config.Config) *middleware.SecurityConfig {
	if cfg.IsProduction() {
		return middleware.DefaultSecurityConfig()
	}
	return middleware.DevelopmentSecurityConfig()
}

func validationConfig(cfg *config.Config) *middleware.ValidationConfig {
	vc := middleware.DefaultValidationConfig()
	if cfg.Uploads.MaxFileSize > 0 {
		// multipart framing adds a little on top of the file itself
		vc.MaxMultipartSize = cfg.Uploads.MaxFileSize + 1<<20
	}
	return vc
}

// requestTimeout bounds a single handler when the server has no write
// timeout configured.
const requestTimeout = 30 * time.Second
