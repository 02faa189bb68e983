package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

const (
	retryBaseMinutes = 5
	retryMaxMinutes  = 24 * 60
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook log repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookLogRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a new log row. Redeliveries of the same event get their own row.
func (r *webhookRepository) Append(ctx context.Context, entry *model.WebhookLog) error {
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}
	if entry.Outcome == "" {
		entry.Outcome = model.WebhookOutcomeReceived
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error("Failed to append webhook log",
			zap.String("event_id", entry.EventID),
			zap.String("event_type", entry.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to append webhook log: %w", err)
	}
	return nil
}

// MarkProcessed marks a webhook log entry as processed
func (r *webhookRepository) MarkProcessed(ctx context.Context, id int64, outcome model.WebhookOutcome) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":     true,
			"outcome":       outcome,
			"processed_at":  &now,
			"next_retry_at": gorm.Expr("NULL"),
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.Int64("log_id", id),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook log not found: %d", id)
	}
	return nil
}

// MarkFailed records a processing failure with exponential backoff
func (r *webhookRepository) MarkFailed(ctx context.Context, id int64, cause error, retriable bool) error {
	var entry model.WebhookLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return fmt.Errorf("failed to get webhook log: %w", err)
	}

	attempts := entry.Attempts + 1
	errorMsg := cause.Error()
	updates := map[string]interface{}{
		"processed":     false,
		"outcome":       model.WebhookOutcomeFailed,
		"attempts":      attempts,
		"error_message": &errorMsg,
	}
	if retriable {
		next := time.Now().Add(RetryDelay(attempts))
		updates["next_retry_at"] = &next
	} else {
		updates["next_retry_at"] = gorm.Expr("NULL")
	}

	if err := r.db.WithContext(ctx).
		Model(&model.WebhookLog{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		r.logger.Error("Failed to mark webhook as failed",
			zap.Int64("log_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to mark webhook as failed: %w", err)
	}
	return nil
}

// RetryDelay doubles from 10 minutes per attempt and caps at 24 hours.
func RetryDelay(attempts int) time.Duration {
	if attempts > 10 {
		attempts = 10
	}
	minutes := retryBaseMinutes * (1 << attempts)
	if minutes > retryMaxMinutes {
		minutes = retryMaxMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// GetRetryable returns failed entries whose retry time has come
func (r *webhookRepository) GetRetryable(ctx context.Context, now time.Time, limit int) ([]*model.WebhookLog, error) {
	var entries []*model.WebhookLog

	query := r.db.WithContext(ctx).
		Where("processed = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", false, now).
		Order("received_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		r.logger.Error("Failed to get retryable webhook logs", zap.Error(err))
		return nil, fmt.Errorf("failed to get retryable webhook logs: %w", err)
	}
	return entries, nil
}

func (r *webhookRepository) CountByEventID(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WebhookLog{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count webhook logs: %w", err)
	}
	return count, nil
}
