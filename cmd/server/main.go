package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	billingapp "github.com/renovate/backend/internal/application/billing"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/infrastructure/cache"
	"github.com/renovate/backend/internal/infrastructure/config"
	"github.com/renovate/backend/internal/infrastructure/event"
	"github.com/renovate/backend/internal/infrastructure/logger"
	"github.com/renovate/backend/internal/infrastructure/payment"
	"github.com/renovate/backend/internal/infrastructure/persistence"
	"github.com/renovate/backend/internal/infrastructure/persistence/memory"
	"github.com/renovate/backend/internal/interfaces/http/dto"
	"github.com/renovate/backend/internal/interfaces/http/handler"
	"github.com/renovate/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Renovate Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
	)

	// Select the store: in-memory for development, GORM for the rest.
	var (
		projectRepo billing.ProjectRepository
		invoiceRepo billing.InvoiceRepository
	)
	if cfg.Database.Driver == "memory" {
		projectRepo = memory.NewProjectRepository()
		invoiceRepo = memory.NewInvoiceRepository()
		log.Info("Using in-memory store")
	} else {
		db, err := persistence.NewDatabase(&cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate database schema", zap.Error(err))
		}
		projectRepo = persistence.NewGormProjectRepository(db.DB)
		invoiceRepo = persistence.NewGormInvoiceRepository(db.DB)
		log.Info("Database connected successfully")
	}

	// Optional Redis summary cache.
	var summaryCache billingapp.SummaryCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, summary cache disabled", zap.Error(err))
		} else {
			summaryCache = cache.NewRedisSummaryCache(redisClient, cfg.Redis.CacheTTL, log)
			log.Info("Redis summary cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
		}
	}

	// Optional Stripe gateway.
	var gateway billing.PaymentGateway
	if cfg.Stripe.Enabled {
		stripeGateway, err := payment.NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
		}
		gateway = stripeGateway
		log.Info("Stripe payment gateway enabled")
	}

	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services.
	projectSvc := billingapp.NewProjectService(billingapp.ProjectServiceConfig{
		ProjectRepo: projectRepo,
		Events:      eventBus,
		Logger:      log,
	})
	invoiceSvc := billingapp.NewInvoiceService(billingapp.InvoiceServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
		Events:      eventBus,
		Cache:       summaryCache,
		Logger:      log,
	})
	progressSvc := billingapp.NewProgressService(billingapp.ProgressServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceSvc:  invoiceSvc,
		Events:      eventBus,
		Logger:      log,
	})
	paymentSvc := billingapp.NewPaymentService(billingapp.PaymentServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
		Gateway:     gateway,
		Events:      eventBus,
		Cache:       summaryCache,
		Logger:      log,
	})
	summarySvc := billingapp.NewSummaryService(billingapp.SummaryServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
		Cache:       summaryCache,
		Logger:      log,
	})

	// HTTP server.
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidations(); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler())
	r.Register(handler.NewBillingHandler(projectSvc, progressSvc, invoiceSvc, paymentSvc, summarySvc))
	r.Register(handler.NewPaymentCallbackHandler(paymentSvc))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Overdue sweep ticker.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Billing.OverdueSweepEnabled {
		go runOverdueSweep(sweepCtx, paymentSvc, cfg.Billing.OverdueSweepInterval, log)
		log.Info("Overdue sweep enabled", zap.Duration("interval", cfg.Billing.OverdueSweepInterval))
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	log.Info("Server exited")
}

// runOverdueSweep periodically flips SENT invoices past their due date to
// OVERDUE.
func runOverdueSweep(ctx context.Context, paymentSvc *billingapp.PaymentService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := paymentSvc.MarkOverdueInvoices(ctx, time.Now()); err != nil {
				log.Error("Overdue sweep failed", zap.Error(err))
			}
		}
	}
}
