package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cvtoletter/backend/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.Account{},
		&model.CheckoutSession{},
		&model.CreditTransaction{},
		&model.WebhookLog{},
		&model.CoverLetter{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := createCustomIndexes(db); err != nil {
			logger.Error("Failed to create custom indexes", zap.Error(err))
			return err
		}
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_checkout_sessions_pending ON checkout_sessions (created_at) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_logs_unprocessed ON webhook_logs (next_retry_at) WHERE processed = false`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
