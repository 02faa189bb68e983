package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/cvtoletter/backend/internal/domain/event"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/domain/provider"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
	"github.com/cvtoletter/backend/internal/usecase"
)

// MockPaymentProvider is a mock implementation of provider.PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, req *provider.CreateCheckoutSessionRequest) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*provider.PaymentIntent, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PaymentIntent), args.Error(1)
}

func (m *MockPaymentProvider) ListLineItems(ctx context.Context, sessionID string) ([]provider.LineItem, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.LineItem), args.Error(1)
}

func (m *MockPaymentProvider) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

// MockCreditRepository is a mock implementation of repository.CreditRepository
type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockCreditRepository) IncrementCredits(ctx context.Context, accountID uuid.UUID, delta int64, txType model.TransactionType, description string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, accountID, delta, txType, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockCreditRepository) UseCredits(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockCreditRepository) RecordUsage(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockCreditRepository) Settle(ctx context.Context, req domainRepo.SettleRequest) (*domainRepo.SettleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRepo.SettleResult), args.Error(1)
}

func (m *MockCreditRepository) GetTransactionHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, int64, error) {
	args := m.Called(ctx, accountID, limit, offset)
	return args.Get(0).([]*model.CreditTransaction), args.Get(1).(int64), args.Error(2)
}

// MockCheckoutSessionRepository is a mock implementation of repository.CheckoutSessionRepository
type MockCheckoutSessionRepository struct {
	mock.Mock
}

func (m *MockCheckoutSessionRepository) CreateIfAbsent(ctx context.Context, session *model.CheckoutSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCheckoutSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutSession), args.Error(1)
}

func (m *MockCheckoutSessionRepository) Transition(ctx context.Context, sessionID string, from, to model.CheckoutStatus) (bool, error) {
	args := m.Called(ctx, sessionID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockCheckoutSessionRepository) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.CheckoutSession, error) {
	args := m.Called(ctx, olderThan, limit)
	return args.Get(0).([]*model.CheckoutSession), args.Error(1)
}

// MockAccountRepository is a mock implementation of repository.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Ensure(ctx context.Context, id uuid.UUID, email string) (*model.Account, error) {
	args := m.Called(ctx, id, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) SetCustomerIDIfEmpty(ctx context.Context, id uuid.UUID, customerID string) (bool, error) {
	args := m.Called(ctx, id, customerID)
	return args.Bool(0), args.Error(1)
}

// MockWebhookLogRepository is a mock implementation of repository.WebhookLogRepository
type MockWebhookLogRepository struct {
	mock.Mock
}

func (m *MockWebhookLogRepository) Append(ctx context.Context, entry *model.WebhookLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockWebhookLogRepository) MarkProcessed(ctx context.Context, id int64, outcome model.WebhookOutcome) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}

func (m *MockWebhookLogRepository) MarkFailed(ctx context.Context, id int64, cause error, retriable bool) error {
	args := m.Called(ctx, id, cause, retriable)
	return args.Error(0)
}

func (m *MockWebhookLogRepository) GetRetryable(ctx context.Context, now time.Time, limit int) ([]*model.WebhookLog, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*model.WebhookLog), args.Error(1)
}

func (m *MockWebhookLogRepository) CountByEventID(ctx context.Context, eventID string) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCoverLetterRepository is a mock implementation of repository.CoverLetterRepository
type MockCoverLetterRepository struct {
	mock.Mock
}

func (m *MockCoverLetterRepository) Create(ctx context.Context, letter *model.CoverLetter) error {
	args := m.Called(ctx, letter)
	return args.Error(0)
}

func (m *MockCoverLetterRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*model.CoverLetter, error) {
	args := m.Called(ctx, accountID, limit)
	return args.Get(0).([]*model.CoverLetter), args.Error(1)
}

// MockWebhookVerifier is a mock implementation of provider.WebhookVerifier
type MockWebhookVerifier struct {
	mock.Mock
}

func (m *MockWebhookVerifier) Verify(payload []byte, signature string) (*provider.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.WebhookEvent), args.Error(1)
}

func (m *MockWebhookVerifier) Parse(payload []byte) (*provider.WebhookEvent, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.WebhookEvent), args.Error(1)
}

// MockReconciler is a mock implementation of usecase.Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, req usecase.ReconcileRequest) (*usecase.ReconcileResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReconcileResult), args.Error(1)
}

// MockPublisher is a mock implementation of event.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCreditsApplied(ctx context.Context, evt event.CreditsApplied) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// MockGenerator is a mock implementation of usecase.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, accountID string, req usecase.GenerateRequest) (*usecase.GeneratedLetter, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.GeneratedLetter), args.Error(1)
}
