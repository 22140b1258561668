package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/config"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/controller"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/metadata"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/middleware"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/service"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/verifier"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize metrics
	middleware.InitMetrics()

	// Initialize shared resource managers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := database.NewConnectionPool(cfg.Verifier.MaxConnections, cfg.Verifier.NetworkIdleTTL, cfg.Verifier.ConnectTimeout, logger)
	go pool.Start(ctx)

	files := database.NewFileHandleCache(cfg.Verifier.FileIdleTTL, logger)
	go files.Start(ctx)

	schemaCache := metadata.NewSchemaCache(cfg.Verifier.SchemaCacheTTL)
	hub := verifier.NewProgressHub()

	// Initialize services and controllers
	verificationService := service.NewVerificationService(cfg, pool, files, schemaCache, hub, logger)
	verificationController := controller.NewVerificationController(verificationService, logger)
	healthController := controller.NewHealthController(verificationService)

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.PrometheusMiddleware())

	if cfg.Server.EnableRateLimit {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPM:             cfg.Server.RateLimitPerMinute,
			Burst:           cfg.Server.RateLimitBurst,
			CleanupInterval: 5 * time.Minute,
		})
		router.Use(rateLimiter.RateLimit())
	}

	router.GET("/health", healthController.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/verify", verificationController.Verify)
		api.POST("/test-connection", verificationController.TestConnection)
		api.GET("/backends", verificationController.Backends)
		api.GET("/progress/:runId", verificationController.Progress)
	}

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}

	pool.CloseAll()
	files.CloseAll()
}
