package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/imageproxy"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/infrastructure/woocommerce"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	upstreamMetrics, err := telemetry.NewUpstreamMetrics(meterProvider.Meter("storefront/upstream"))
	if err != nil {
		log.Fatal("Failed to create upstream metrics", zap.Error(err))
	}

	// Catalog client
	cred := woocommerce.NewCredential(cfg.Catalog.BaseURL, cfg.Catalog.ConsumerKey, cfg.Catalog.ConsumerSecret)
	cred.APIVersion = cfg.Catalog.APIVersion
	cred.Scheme = woocommerce.AuthScheme(cfg.Catalog.AuthScheme)
	cred.Placement = woocommerce.Placement(cfg.Catalog.SignaturePlacement)
	cred.AllowInsecureHTTP = cfg.Catalog.AllowInsecureHTTP
	cred.Timeout = cfg.Catalog.Timeout

	client, err := woocommerce.NewClient(cred,
		woocommerce.WithLogger(logger.Named(log, "woocommerce")),
		woocommerce.WithMetrics(upstreamMetrics),
	)
	if err != nil {
		log.Fatal("Invalid catalog credential", zap.Error(err))
	}
	log.Info("Catalog configured", zap.Stringer("credential", cred))

	// Image proxy
	rewriter := imageproxy.NewRewriter(cfg.ImageProxy.Path)
	allowList := imageproxy.NewAllowList(cfg.ImageProxy.AllowedHosts)
	if allowList.Len() == 0 {
		log.Fatal("Image proxy allow-list has no usable hostnames",
			zap.Strings("configured", cfg.ImageProxy.AllowedHosts),
		)
	}
	proxy := imageproxy.New(allowList,
		imageproxy.WithUserAgent(cfg.ImageProxy.UserAgent),
		imageproxy.WithMaxAge(cfg.ImageProxy.MaxAge),
		imageproxy.WithLogger(logger.Named(log, "imageproxy")),
		imageproxy.WithMetrics(upstreamMetrics),
	)
	log.Info("Image proxy configured",
		zap.String("path", rewriter.Path()),
		zap.Strings("allowed_hosts", allowList.Hosts()),
	)

	// Application services
	gateway := catalogapp.NewGateway(woocommerce.NewCatalogAdapter(client), rewriter, logger.Named(log, "catalog"))
	gateway.SetConfig(catalogapp.GatewayConfig{
		DefaultPageSize:     cfg.Catalog.DefaultPageSize,
		PublicStatuses:      cfg.Catalog.PublicStatuses,
		HideEmptyCategories: cfg.Catalog.HideEmptyCategories,
	})

	prices, err := catalog.NewPriceFormatter(cfg.Catalog.Currency, cfg.Catalog.Locale)
	if err != nil {
		log.Fatal("Invalid price format settings", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	// Apply middleware stack in order:
	// 1. Tracing - Start the server span
	// 2. RequestID - Generate/propagate request ID
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics - Record request counts and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Rate limiting on the image proxy (if enabled)
	var imageMiddleware []gin.HandlerFunc
	if cfg.ImageProxy.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(cfg.ImageProxy.RateLimit, cfg.ImageProxy.RateWindow)
		defer rateLimiter.Stop()
		imageMiddleware = append(imageMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Image proxy rate limiting enabled",
			zap.Int("requests", cfg.ImageProxy.RateLimit),
			zap.Duration("window", cfg.ImageProxy.RateWindow),
		)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterStorefront(r, router.Handlers{
		Catalog:         handler.NewCatalogHandler(gateway, prices),
		ImageProxy:      handler.NewImageProxyHandler(proxy, logger.Named(log, "imageproxy")),
		System:          handler.NewSystemHandler(cfg.App.Name, version),
		ImagePath:       rewriter.Path(),
		ImageMiddleware: imageMiddleware,
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
