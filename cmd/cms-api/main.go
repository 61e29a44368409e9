package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xen-network/cms-api/api/swagger"
	"github.com/xen-network/cms-api/internal/handler"
	"github.com/xen-network/cms-api/internal/middleware"
	"github.com/xen-network/cms-api/internal/repository"
	"github.com/xen-network/cms-api/internal/service"
	"github.com/xen-network/cms-api/pkg/cache"
	"github.com/xen-network/cms-api/pkg/config"
	"github.com/xen-network/cms-api/pkg/database"
	"github.com/xen-network/cms-api/pkg/logger"
	corsmiddleware "github.com/xen-network/cms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/xen-network/cms-api/pkg/middleware/requestid"
	"github.com/xen-network/cms-api/pkg/storage"
)

// @title XEN CMS API
// @version 1.0.0
// @description Backend for the XEN marketing site and admin CMS
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Content caching is an optimization; the API serves without it.
		logr.Sugar().Warnw("redis unavailable, content caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	eventRepo := repository.NewEventRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Content.CacheTTL, logr, cfg.Content.CacheEnabled)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		AdminAllowedEmails: cfg.Admin.AllowedEmails,
	})

	sender := service.NewRelaySender(cfg.Notifications.RelayURL, cfg.Notifications.RequestTimeout)
	notifier := service.NewNotificationService(sender, metrics, logr, cfg.Notifications)

	registrationSvc := service.NewRegistrationService(registrationRepo, userRepo, exportStore, signer, metrics, logr, cfg.APIPrefix)
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, notifier, validate, logr)
	inquirySvc := service.NewInquiryService(inquiryRepo, userRepo, notifier, validate, logr)
	resourceSvc := service.NewResourceService(resourceRepo, userRepo, cacheSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, userRepo, cacheSvc, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier.Start(ctx)
	defer notifier.Stop()

	go runExportCleanup(ctx, exportStore, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc, signer, exportStore, logr),
		Bookings:      handler.NewBookingHandler(bookingSvc),
		Inquiries:     handler.NewInquiryHandler(inquirySvc),
		Resources:     handler.NewResourceHandler(resourceSvc),
		Events:        handler.NewEventHandler(eventSvc),
	}, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// runExportCleanup periodically removes export files whose signed URLs have
// expired.
func runExportCleanup(ctx context.Context, store *storage.LocalStorage, interval, ttl time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Sugar().Infow("export cleanup", "deleted", len(deleted))
			}
		}
	}
}
