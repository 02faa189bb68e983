package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/config"
	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/event"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/domain/provider"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

// ReconcileState is the last state a reconciliation reached.
type ReconcileState string

const (
	StateInitiated       ReconcileState = "initiated"
	StateVerified        ReconcileState = "verified"
	StateCreditsResolved ReconcileState = "credits_resolved"
	StateClaimed         ReconcileState = "claimed"
	StateApplied         ReconcileState = "applied"
	StateRejected        ReconcileState = "rejected"
	StateError           ReconcileState = "error"
)

// ReconcileOutcome distinguishes the winning call from the ones that found
// the session already settled.
type ReconcileOutcome string

const (
	OutcomeApplied        ReconcileOutcome = "applied"
	OutcomeAlreadySettled ReconcileOutcome = "already_settled"
)

// ReconcileRequest is one attempt to settle a checkout session.
type ReconcileRequest struct {
	SessionID string
	// Principal is the authenticated caller on the redirect path. uuid.Nil
	// skips the ownership check (webhook and operator paths).
	Principal uuid.UUID
	Source    model.SettlementSource
	// Session is the verified webhook payload. When nil the session is
	// fetched from the provider.
	Session *provider.CheckoutSession
}

type ReconcileResult struct {
	SessionID    string           `json:"session_id"`
	AccountID    uuid.UUID        `json:"account_id"`
	State        ReconcileState   `json:"state"`
	Outcome      ReconcileOutcome `json:"outcome"`
	CreditsAdded int64            `json:"credits_added"`
	Balance      int64            `json:"balance"`
	CreditSource CreditSource     `json:"credit_source,omitempty"`
}

// ReconciliationService settles checkout sessions exactly once no matter how
// many redirect, webhook or operator calls race for the same session.
type ReconciliationService struct {
	provider  provider.PaymentProvider
	resolver  *CreditResolver
	sessions  domainRepo.CheckoutSessionRepository
	credits   domainRepo.CreditRepository
	publisher event.Publisher
	cfg       config.ReconciliationConfig
	logger    *zap.Logger
}

func NewReconciliationService(
	p provider.PaymentProvider,
	resolver *CreditResolver,
	sessions domainRepo.CheckoutSessionRepository,
	credits domainRepo.CreditRepository,
	publisher event.Publisher,
	cfg config.ReconciliationConfig,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		provider:  p,
		resolver:  resolver,
		sessions:  sessions,
		credits:   credits,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Reconcile drives a session through VERIFIED, CREDITS_RESOLVED, CLAIMED and
// APPLIED. A session that is not paid never mutates the ledger. The returned
// error is always a *domainerrors.LedgerError.
func (s *ReconciliationService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	if req.SessionID == "" {
		return nil, domainerrors.NewInvalidReferenceError("", "session id is required")
	}

	log := s.logger.With(
		zap.String("session_id", req.SessionID),
		zap.String("source", string(req.Source)))
	result := &ReconcileResult{SessionID: req.SessionID, State: StateInitiated}

	local, err := s.sessions.GetBySessionID(ctx, req.SessionID)
	if err != nil && !errors.Is(err, domainerrors.ErrCheckoutSessionNotFound) {
		result.State = StateError
		return result, err
	}

	if local != nil && local.IsCompleted() {
		return s.alreadySettled(ctx, req, local.AccountID, result)
	}

	session, err := s.verifiedSession(ctx, req)
	if err != nil {
		result.State = StateError
		log.Warn("Could not verify checkout session", zap.Error(err))
		return result, err
	}
	result.State = StateVerified

	owner, err := s.resolveOwner(session, local)
	if err != nil {
		result.State = StateError
		return result, err
	}
	result.AccountID = owner
	if req.Principal != uuid.Nil && req.Principal != owner {
		result.State = StateError
		log.Warn("Checkout session belongs to another account",
			zap.String("principal", req.Principal.String()),
			zap.String("owner", owner.String()))
		return result, domainerrors.NewInvalidReferenceError(req.SessionID, "checkout session does not belong to caller")
	}

	if err := checkPaid(session); err != nil {
		result.State = StateRejected
		log.Info("Checkout session not payable",
			zap.String("status", string(session.Status)),
			zap.String("payment_status", string(session.PaymentStatus)))
		return result, err
	}

	resolveCtx, cancel := s.providerContext(ctx)
	resolution, err := s.resolver.Resolve(resolveCtx, session)
	cancel()
	if err != nil {
		result.State = StateError
		return result, err
	}
	result.State = StateCreditsResolved
	result.CreditSource = resolution.Source

	packageID, priceRef := resolution.PackageID, resolution.PriceRef
	if local != nil {
		if packageID == "" {
			packageID = local.PackageID
		}
		if priceRef == "" {
			priceRef = local.PriceRef
		}
	}

	settled, err := s.settleWithRetry(ctx, log, domainRepo.SettleRequest{
		SessionID:  req.SessionID,
		AccountID:  owner,
		PackageID:  packageID,
		PriceRef:   priceRef,
		Credits:    resolution.Credits,
		Source:     req.Source,
		CustomerID: session.CustomerID,
	})
	if err != nil {
		result.State = StateError
		log.Error("Failed to settle checkout session", zap.Error(err))
		return result, err
	}

	result.State = StateApplied
	result.Balance = settled.Balance
	if !settled.Claimed {
		result.Outcome = OutcomeAlreadySettled
		log.Info("Checkout session settled by a concurrent call", zap.Int64("balance", settled.Balance))
		return result, nil
	}

	result.Outcome = OutcomeApplied
	result.CreditsAdded = settled.CreditsAdded
	log.Info("Credits applied for checkout session",
		zap.String("account_id", owner.String()),
		zap.Int64("credits", settled.CreditsAdded),
		zap.Int64("balance", settled.Balance),
		zap.String("credit_source", string(resolution.Source)))

	s.publish(ctx, log, result, req.Source)
	return result, nil
}

func (s *ReconciliationService) alreadySettled(ctx context.Context, req ReconcileRequest, owner uuid.UUID, result *ReconcileResult) (*ReconcileResult, error) {
	if req.Principal != uuid.Nil && req.Principal != owner {
		result.State = StateError
		return result, domainerrors.NewInvalidReferenceError(req.SessionID, "checkout session does not belong to caller")
	}

	account, err := s.credits.GetBalance(ctx, owner)
	if err != nil {
		result.State = StateError
		if domainerrors.KindOf(err) == "" {
			err = domainerrors.NewStorageFatalError(req.SessionID, err)
		}
		return result, err
	}

	result.AccountID = owner
	result.State = StateApplied
	result.Outcome = OutcomeAlreadySettled
	result.Balance = account.Credits
	return result, nil
}

func (s *ReconciliationService) verifiedSession(ctx context.Context, req ReconcileRequest) (*provider.CheckoutSession, error) {
	if req.Session != nil {
		if req.Session.ID != req.SessionID {
			return nil, domainerrors.NewInvalidReferenceError(req.SessionID, "session id does not match payload")
		}
		return req.Session, nil
	}

	fetchCtx, cancel := s.providerContext(ctx)
	defer cancel()
	return s.provider.GetCheckoutSession(fetchCtx, req.SessionID)
}

// resolveOwner trusts client_reference_id first and the locally recorded
// owner second. Anything else is an invalid reference.
func (s *ReconciliationService) resolveOwner(session *provider.CheckoutSession, local *model.CheckoutSession) (uuid.UUID, error) {
	if session.ClientReferenceID != "" {
		owner, err := uuid.Parse(session.ClientReferenceID)
		if err != nil {
			return uuid.Nil, domainerrors.NewInvalidReferenceError(session.ID, "client reference is not an account id")
		}
		if local != nil && local.AccountID != owner {
			return uuid.Nil, domainerrors.NewInvalidReferenceError(session.ID, "client reference does not match recorded owner")
		}
		return owner, nil
	}

	if local != nil && local.AccountID != uuid.Nil {
		return local.AccountID, nil
	}
	return uuid.Nil, domainerrors.NewInvalidReferenceError(session.ID, "checkout session has no owner")
}

func checkPaid(session *provider.CheckoutSession) error {
	switch {
	case session.PaymentStatus == provider.PaymentStatusPaid:
		return nil
	case session.Status == provider.SessionStatusExpired:
		return domainerrors.NewPaymentRejectedError(session.ID, string(session.Status))
	case session.PaymentStatus == provider.PaymentStatusNoPaymentRequired:
		return domainerrors.NewPaymentRejectedError(session.ID, string(session.PaymentStatus))
	default:
		return domainerrors.NewPaymentPendingError(session.ID, string(session.Status)+"/"+string(session.PaymentStatus))
	}
}

func (s *ReconciliationService) settleWithRetry(ctx context.Context, log *zap.Logger, req domainRepo.SettleRequest) (*domainRepo.SettleResult, error) {
	for attempt := 0; ; attempt++ {
		res, err := s.credits.Settle(ctx, req)
		if err == nil {
			return res, nil
		}
		if !domainerrors.IsKind(err, domainerrors.KindStorageConflict) || attempt >= s.cfg.StorageRetries {
			return nil, err
		}

		log.Warn("Settlement conflicted, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, domainerrors.NewStorageConflictError(req.SessionID, ctx.Err())
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (s *ReconciliationService) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ProviderTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.ProviderTimeout)
}

func (s *ReconciliationService) publish(ctx context.Context, log *zap.Logger, result *ReconcileResult, source model.SettlementSource) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishCreditsApplied(ctx, event.CreditsApplied{
		AccountID:    result.AccountID.String(),
		SessionID:    result.SessionID,
		CreditsAdded: result.CreditsAdded,
		Balance:      result.Balance,
		Source:       string(source),
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Warn("Failed to publish credits applied event", zap.Error(err))
	}
}
