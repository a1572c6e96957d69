// @title           ScholarHub API
// @version         1.0.0
// @description     Job and scholarship applications for applicants, staff and administrators.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scholarhub/internal/config"
	"scholarhub/internal/database"
	"scholarhub/internal/middleware"
	"scholarhub/internal/monitoring"
	"scholarhub/internal/realtime"
	"scholarhub/internal/response"
	"scholarhub/internal/router"
	"scholarhub/internal/services"
	"scholarhub/internal/utils/appinfo"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := appinfo.NewLogger(cfg.Logging, cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting ScholarHub",
		zap.String("environment", cfg.Server.Environment),
		zap.String("commit", appinfo.Commit()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.InitDB(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbManager.Close()

	serviceCollection, err := services.NewServiceCollection(ctx, dbManager, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(cfg.Realtime, serviceCollection.EventBus, logger.Named("realtime"))
		if err := hub.Attach(); err != nil {
			return fmt.Errorf("failed to attach realtime hub: %w", err)
		}
	}

	if err := serviceCollection.Start(ctx); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}

	responseConfig := response.DefaultConfig()
	responseConfig.PrettyJSON = cfg.IsDevelopment()
	responseConfig.MaskInternalErrors = cfg.IsProduction()
	responseBuilder := response.NewBuilder(responseConfig, logger)

	authMiddleware := middleware.NewAuthMiddleware(serviceCollection.AuthService, responseBuilder, middleware.DefaultAuthConfig(), logger)

	rateLimitConfig := middleware.DefaultRateLimiterConfig()
	if cfg.Security.RateLimitRequests > 0 {
		rateLimitConfig.Requests = cfg.Security.RateLimitRequests
	}
	if cfg.Security.RateLimitWindow > 0 {
		rateLimitConfig.Window = cfg.Security.RateLimitWindow
	}
	if cfg.Security.RateLimitBurst > 0 {
		rateLimitConfig.Burst = cfg.Security.RateLimitBurst
	}
	rateLimiter := middleware.NewRateLimiter(rateLimitConfig, responseBuilder, logger)
	go rateLimiter.Run(ctx)

	var connections monitoring.ConnectionCounter
	if hub != nil {
		connections = hub
	}
	dashboard := monitoring.NewDashboard(serviceCollection, connections, responseBuilder, logger, appinfo.Version(), cfg.Server.Environment)

	handler := router.SetupRouter(serviceCollection, authMiddleware, responseBuilder, logger, router.Options{
		Hub:         hub,
		Dashboard:   dashboard,
		RateLimiter: rateLimiter,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if hub != nil {
		if err := hub.Close(); err != nil {
			logger.Warn("Failed to close realtime hub", zap.Error(err))
		}
	}
	if err := serviceCollection.Shutdown(shutdownCtx); err != nil {
		logger.Error("Service shutdown failed", zap.Error(err))
	}

	logger.Info("Application stopped")
	return nil
}
