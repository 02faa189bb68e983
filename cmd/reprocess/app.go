package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/internal/infrastructure/database"
	"github.com/cvtoletter/backend/internal/infrastructure/messaging"
	"github.com/cvtoletter/backend/internal/infrastructure/provider/stripe"
	"github.com/cvtoletter/backend/internal/usecase"
	"github.com/cvtoletter/backend/pkg/logger"
)

// app holds what the operator commands share. Credit events are not published
// from here; the server owns the channel.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	admin  *usecase.AdminService
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cat, err := cfg.Catalog.Build()
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	repos := database.NewRepositories(db, log)

	paymentProvider := stripe.NewStripeProvider(cfg.Stripe, log)
	verifier := stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret, 0)

	resolver := usecase.NewCreditResolver(paymentProvider, cat, log)
	reconciler := usecase.NewReconciliationService(
		paymentProvider, resolver, repos.CheckoutSession, repos.Credit,
		messaging.NoopPublisher{}, cfg.Reconciliation, log,
	)
	webhooks := usecase.NewWebhookService(verifier, repos.Webhook, reconciler, log)

	return &app{
		cfg:    cfg,
		logger: log,
		db:     db,
		admin: usecase.NewAdminService(
			reconciler, repos.CheckoutSession, webhooks,
			cfg.Reconciliation.WebhookRetryBatch, log,
		),
	}, nil
}

func (a *app) close() {
	if err := database.Close(a.db, a.logger); err != nil {
		a.logger.Error("Failed to close database connection", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp builds the app for one command and tears it down afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
