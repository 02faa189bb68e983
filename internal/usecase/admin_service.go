package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

const defaultPendingLimit = 100

// AdminService is the operator surface: manual reprocessing of stuck
// sessions and re-driving failed webhook deliveries.
type AdminService struct {
	reconciler Reconciler
	sessions   domainRepo.CheckoutSessionRepository
	webhooks   *WebhookService
	retryBatch int
	logger     *zap.Logger
}

func NewAdminService(
	reconciler Reconciler,
	sessions domainRepo.CheckoutSessionRepository,
	webhooks *WebhookService,
	retryBatch int,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		reconciler: reconciler,
		sessions:   sessions,
		webhooks:   webhooks,
		retryBatch: retryBatch,
		logger:     logger,
	}
}

// Reprocess reconciles a session against the provider without an ownership
// check. It is idempotent like every other path.
func (s *AdminService) Reprocess(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	s.logger.Info("Manual reprocess requested", zap.String("session_id", sessionID))
	return s.reconciler.Reconcile(ctx, ReconcileRequest{
		SessionID: sessionID,
		Source:    model.SettledViaManual,
	})
}

// ListPending returns sessions still pending after olderThan has elapsed.
func (s *AdminService) ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]*model.CheckoutSession, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	return s.sessions.ListPending(ctx, time.Now().Add(-olderThan), limit)
}

// ReprocessPending reprocesses every stale pending session and returns the
// per-session results. Individual failures do not stop the pass.
func (s *AdminService) ReprocessPending(ctx context.Context, olderThan time.Duration, limit int) (map[string]error, error) {
	pending, err := s.ListPending(ctx, olderThan, limit)
	if err != nil {
		return nil, err
	}

	results := make(map[string]error, len(pending))
	for _, session := range pending {
		_, err := s.Reprocess(ctx, session.SessionID)
		results[session.SessionID] = err
	}
	return results, nil
}

// RetryWebhooks re-drives due webhook log rows. A non-positive limit uses the
// configured batch size.
func (s *AdminService) RetryWebhooks(ctx context.Context, limit int) (*WebhookRetrySummary, error) {
	if limit <= 0 {
		limit = s.retryBatch
	}
	return s.webhooks.RetryDue(ctx, limit)
}
