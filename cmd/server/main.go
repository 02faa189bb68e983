package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	handlers "github.com/cvtoletter/backend/internal/adapter/handler/http"
	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/internal/domain/event"
	"github.com/cvtoletter/backend/internal/infrastructure/database"
	"github.com/cvtoletter/backend/internal/infrastructure/generator"
	grpcServer "github.com/cvtoletter/backend/internal/infrastructure/grpc"
	httpServer "github.com/cvtoletter/backend/internal/infrastructure/http"
	"github.com/cvtoletter/backend/internal/infrastructure/messaging"
	"github.com/cvtoletter/backend/internal/infrastructure/provider/stripe"
	"github.com/cvtoletter/backend/internal/usecase"
	"github.com/cvtoletter/backend/pkg/logger"
	pkgmessaging "github.com/cvtoletter/backend/pkg/messaging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.DefaultZapLogger().Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		logger.DefaultZapLogger().Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = zapLogger.Sync() }()

	cat, err := cfg.Catalog.Build()
	if err != nil {
		zapLogger.Fatal("Invalid package catalog", zap.Error(err))
	}

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, closePublisher := newPublisher(ctx, cfg.Redis, zapLogger)
	defer closePublisher()

	// Payment provider
	paymentProvider := stripe.NewStripeProvider(cfg.Stripe, zapLogger)
	verifier := stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret, 0)

	// Use cases
	resolver := usecase.NewCreditResolver(paymentProvider, cat, zapLogger)
	reconciler := usecase.NewReconciliationService(
		paymentProvider, resolver, repos.CheckoutSession, repos.Credit,
		publisher, cfg.Reconciliation, zapLogger,
	)
	checkoutService := usecase.NewCheckoutService(
		paymentProvider, cat, repos.Account, repos.CheckoutSession,
		cfg.Service.ClientURL, zapLogger,
	)
	webhookService := usecase.NewWebhookService(verifier, repos.Webhook, reconciler, zapLogger)
	creditService := usecase.NewCreditService(repos.Account, zapLogger)
	transactionService := usecase.NewCreditTransactionService(repos.Credit, zapLogger)
	if cfg.Generator.URL == "" {
		zapLogger.Warn("Generator URL not configured; generations will fail and be refunded")
	}
	generationService := usecase.NewGenerationService(
		repos.Account, repos.Credit, repos.CoverLetter,
		generator.NewClient(cfg.Generator, zapLogger), cfg.Generator.Timeout, zapLogger,
	)
	adminService := usecase.NewAdminService(
		reconciler, repos.CheckoutSession, webhookService,
		cfg.Reconciliation.WebhookRetryBatch, zapLogger,
	)

	ping := func(ctx context.Context) error { return database.Ping(ctx, db) }

	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Checkout:   handlers.NewCheckoutHandler(checkoutService, zapLogger),
		Payment:    handlers.NewPaymentHandler(reconciler, zapLogger),
		Webhook:    handlers.NewWebhookHandler(webhookService, zapLogger),
		Credit:     handlers.NewCreditHandler(zapLogger, creditService, transactionService),
		Packages:   handlers.NewPackagesHandler(cat),
		Generation: handlers.NewGenerationHandler(generationService, zapLogger),
		Admin:      handlers.NewAdminHandler(adminService, zapLogger),
	}, ping)

	var grpcSrv *grpcServer.Server
	if cfg.Server.GRPC.Enabled() {
		grpcSrv = grpcServer.NewServer(cfg.Server.GRPC, ping, zapLogger)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				zapLogger.Error("gRPC server stopped", zap.Error(err))
				stop()
			}
		}()
	}

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	zapLogger.Info("Service started",
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
		zap.Int("packages", len(cat.Packages())))

	<-ctx.Done()
	zapLogger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
		}
	}

	zapLogger.Info("Servers shut down")
}

// newPublisher falls back to a no-op publisher when Redis is disabled or unreachable.
func newPublisher(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (event.Publisher, func()) {
	if !cfg.Enabled {
		return messaging.NoopPublisher{}, func() {}
	}

	client, err := pkgmessaging.NewRedisClient(ctx, pkgmessaging.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, credit events disabled", zap.Error(err))
		return messaging.NoopPublisher{}, func() {}
	}

	return messaging.NewRedisPublisher(client, cfg.Channel, log), func() {
		if err := client.Close(); err != nil {
			log.Error("Failed to close redis client", zap.Error(err))
		}
	}
}
