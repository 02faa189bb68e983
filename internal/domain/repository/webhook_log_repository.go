package repository

import (
	"context"
	"time"

	"github.com/cvtoletter/backend/internal/domain/model"
)

// WebhookLogRepository is the append-only audit trail of verified deliveries.
type WebhookLogRepository interface {
	Append(ctx context.Context, entry *model.WebhookLog) error
	MarkProcessed(ctx context.Context, id int64, outcome model.WebhookOutcome) error
	// MarkFailed records the error; retriable entries get a backoff next_retry_at.
	MarkFailed(ctx context.Context, id int64, cause error, retriable bool) error
	// GetRetryable returns unprocessed entries due at now, oldest first.
	GetRetryable(ctx context.Context, now time.Time, limit int) ([]*model.WebhookLog, error)
	CountByEventID(ctx context.Context, eventID string) (int64, error)
}
