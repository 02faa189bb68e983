package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/domain/provider"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
	apperrors "github.com/cvtoletter/backend/pkg/errors"
)

// Reconciler settles one checkout session.
type Reconciler interface {
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)
}

// WebhookReceipt is returned to the provider once the event is logged.
type WebhookReceipt struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Outcome   model.WebhookOutcome `json:"outcome"`
}

type WebhookRetrySummary struct {
	Due       int `json:"due"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// WebhookService verifies provider deliveries, appends them to the webhook
// log and dispatches them to the reconciliation controller.
type WebhookService struct {
	verifier   provider.WebhookVerifier
	logs       domainRepo.WebhookLogRepository
	reconciler Reconciler
	logger     *zap.Logger
}

func NewWebhookService(
	verifier provider.WebhookVerifier,
	logs domainRepo.WebhookLogRepository,
	reconciler Reconciler,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		verifier:   verifier,
		logs:       logs,
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleDelivery verifies the signature over the exact raw body before
// anything else. Unverifiable deliveries are neither logged nor dispatched.
// Once the event is logged, processing failures are recorded on the log row
// and do not fail the delivery.
func (s *WebhookService) HandleDelivery(ctx context.Context, payload []byte, signature string) (*WebhookReceipt, error) {
	evt, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook delivery", zap.Error(err))
		return nil, err
	}

	entry := &model.WebhookLog{
		EventID:    evt.EventID,
		EventType:  evt.EventType,
		Payload:    datatypes.JSON(payload),
		Outcome:    model.WebhookOutcomeReceived,
		ReceivedAt: time.Now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return nil, domainerrors.NewStorageFatalError(evt.EventID, err)
	}

	outcome := s.processEntry(ctx, entry, evt)
	return &WebhookReceipt{EventID: evt.EventID, EventType: evt.EventType, Outcome: outcome}, nil
}

// RetryDue re-drives unprocessed log rows whose backoff has elapsed, using
// the payload stored when the delivery was verified.
func (s *WebhookService) RetryDue(ctx context.Context, limit int) (*WebhookRetrySummary, error) {
	entries, err := s.logs.GetRetryable(ctx, time.Now(), limit)
	if err != nil {
		return nil, err
	}

	summary := &WebhookRetrySummary{Due: len(entries)}
	for _, entry := range entries {
		evt, err := s.verifier.Parse(entry.Payload)
		if err != nil {
			s.logger.Error("Stored webhook payload is unreadable",
				zap.Int64("log_id", entry.ID),
				zap.Error(err))
			if markErr := s.logs.MarkFailed(ctx, entry.ID, err, false); markErr != nil {
				s.logger.Error("Failed to mark webhook as failed", zap.Error(markErr))
			}
			summary.Failed++
			continue
		}

		if s.processEntry(ctx, entry, evt) == model.WebhookOutcomeFailed {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	s.logger.Info("Webhook retry pass finished",
		zap.Int("due", summary.Due),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *WebhookService) processEntry(ctx context.Context, entry *model.WebhookLog, evt *provider.WebhookEvent) model.WebhookOutcome {
	log := s.logger.With(
		zap.String("event_id", evt.EventID),
		zap.String("event_type", evt.EventType),
		zap.Int64("log_id", entry.ID))

	outcome, err := s.dispatch(ctx, log, evt)
	if err != nil {
		apperrors.LogError(log, err, "Webhook processing failed",
			zap.Bool("retriable", domainerrors.IsRetriable(err)))
		if markErr := s.logs.MarkFailed(ctx, entry.ID, err, domainerrors.IsRetriable(err)); markErr != nil {
			log.Error("Failed to mark webhook as failed", zap.Error(markErr))
		}
		return model.WebhookOutcomeFailed
	}

	if err := s.logs.MarkProcessed(ctx, entry.ID, outcome); err != nil {
		log.Error("Failed to mark webhook as processed", zap.Error(err))
	}
	log.Info("Webhook processed", zap.String("outcome", string(outcome)))
	return outcome
}

func (s *WebhookService) dispatch(ctx context.Context, log *zap.Logger, evt *provider.WebhookEvent) (model.WebhookOutcome, error) {
	switch evt.EventType {
	case provider.EventCheckoutSessionCompleted, provider.EventCheckoutAsyncPaymentSucceeded:
		if evt.Session == nil {
			return "", domainerrors.NewProviderUnverifiableError(evt.EventID, nil)
		}
		result, err := s.reconciler.Reconcile(ctx, ReconcileRequest{
			SessionID: evt.Session.ID,
			Source:    model.SettledViaWebhook,
			Session:   evt.Session,
		})
		switch {
		case domainerrors.IsKind(err, domainerrors.KindPaymentPending):
			// async payment methods complete later with async_payment_succeeded
			return model.WebhookOutcomePending, nil
		case domainerrors.IsKind(err, domainerrors.KindPaymentRejected):
			return model.WebhookOutcomeRejected, nil
		case err != nil:
			return "", err
		case result.Outcome == OutcomeAlreadySettled:
			return model.WebhookOutcomeSettled, nil
		default:
			return model.WebhookOutcomeApplied, nil
		}

	case provider.EventCheckoutAsyncPaymentFailed, provider.EventCheckoutSessionExpired,
		provider.EventPaymentIntentPaymentFailed:
		fields := []zap.Field{zap.String("failure_message", evt.FailureMessage)}
		if evt.Session != nil {
			fields = append(fields, zap.String("session_id", evt.Session.ID))
		}
		if evt.PaymentIntent != nil {
			fields = append(fields, zap.String("payment_intent_id", evt.PaymentIntent.ID))
		}
		log.Warn("Payment did not complete", fields...)
		return model.WebhookOutcomeRejected, nil

	default:
		log.Info("Ignoring webhook event")
		return model.WebhookOutcomeIgnored, nil
	}
}
