package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/internal/domain/catalog"
	"github.com/cvtoletter/backend/internal/domain/dto"
	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/domain/provider"
	"github.com/cvtoletter/backend/internal/infrastructure/database"
	stripeprovider "github.com/cvtoletter/backend/internal/infrastructure/provider/stripe"
	"github.com/cvtoletter/backend/internal/middleware/auth"
	"github.com/cvtoletter/backend/internal/testutil"
	"github.com/cvtoletter/backend/internal/usecase"
)

const webhookSecret = "whsec_handler_test"

// fakeProvider serves checkout sessions from memory.
type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*provider.CheckoutSession
}

func (p *fakeProvider) put(s *provider.CheckoutSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = s
}

func (p *fakeProvider) CreateCustomer(context.Context, *provider.CreateCustomerRequest) (string, error) {
	return "cus_fake", nil
}

func (p *fakeProvider) CreateCheckoutSession(context.Context, *provider.CreateCheckoutSessionRequest) (*provider.CheckoutSession, error) {
	return nil, domainerrors.NewProviderUnavailableError("", nil)
}

func (p *fakeProvider) GetCheckoutSession(_ context.Context, id string) (*provider.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, domainerrors.NewInvalidReferenceError(id, "no such checkout session")
	}
	copied := *s
	return &copied, nil
}

func (p *fakeProvider) GetPaymentIntent(_ context.Context, id string) (*provider.PaymentIntent, error) {
	return &provider.PaymentIntent{ID: id}, nil
}

func (p *fakeProvider) ListLineItems(_ context.Context, id string) ([]provider.LineItem, error) {
	return []provider.LineItem{{PriceRef: "P_BASIC", Quantity: 1}}, nil
}

func (p *fakeProvider) GetProviderName() string { return "fake" }

type stack struct {
	echo     *echo.Echo
	repos    *database.Repositories
	provider *fakeProvider
	payments *PaymentHandler
	webhooks *WebhookHandler
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.NewDB(t)
	repos := database.NewRepositories(db, logger)

	cat, err := catalog.New([]catalog.Package{
		{ID: "basic", Name: "Basic", Credits: 15, Price: decimal.RequireFromString("9.99"), Currency: "usd", PriceRef: "P_BASIC"},
	})
	require.NoError(t, err)

	p := &fakeProvider{sessions: map[string]*provider.CheckoutSession{}}
	resolver := usecase.NewCreditResolver(p, cat, logger)
	reconciler := usecase.NewReconciliationService(p, resolver, repos.CheckoutSession, repos.Credit, nil,
		config.ReconciliationConfig{ProviderTimeout: time.Second, StorageRetries: 3, RetryBackoff: time.Millisecond}, logger)
	webhooks := usecase.NewWebhookService(stripeprovider.NewWebhookVerifier(webhookSecret, 0), repos.Webhook, reconciler, logger)

	e := echo.New()
	e.Validator = NewRequestValidator()

	return &stack{
		echo:     e,
		repos:    repos,
		provider: p,
		payments: NewPaymentHandler(reconciler, logger),
		webhooks: NewWebhookHandler(webhooks, logger),
	}
}

func (s *stack) seedAccount(t *testing.T, credits int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := s.repos.Account.Ensure(context.Background(), id, "buyer@example.com")
	require.NoError(t, err)
	if credits > 0 {
		_, err = s.repos.Credit.IncrementCredits(context.Background(), id, credits, model.TransactionTypeAdjustment, "seed")
		require.NoError(t, err)
	}
	return id
}

func (s *stack) verify(t *testing.T, user uuid.UUID, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/verify?session_id="+sessionID, nil)
	req = req.WithContext(auth.WithUser(req.Context(), &auth.AuthUser{UserID: user}))
	rec := httptest.NewRecorder()
	require.NoError(t, s.payments.VerifyPayment(s.echo.NewContext(req, rec)))
	return rec
}

func (s *stack) deliver(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	require.NoError(t, s.webhooks.HandleWebhook(s.echo.NewContext(req, rec)))
	return rec
}

func completedEvent(eventID, sessionID string, owner uuid.UUID) []byte {
	return []byte(`{
  "id": "` + eventID + `",
  "object": "event",
  "type": "checkout.session.completed",
  "created": 1700000000,
  "data": {"object": {
    "id": "` + sessionID + `",
    "object": "checkout.session",
    "status": "complete",
    "payment_status": "paid",
    "client_reference_id": "` + owner.String() + `",
    "metadata": {}
  }}
}`)
}

func sign(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	}).Header
}

func balanceOf(t *testing.T, s *stack, id uuid.UUID) int64 {
	t.Helper()
	account, err := s.repos.Credit.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return account.Credits
}

func TestPaymentFlow_RedirectAndWebhookRace(t *testing.T) {
	s := newStack(t)
	owner := s.seedAccount(t, 2)
	s.provider.put(&provider.CheckoutSession{
		ID:                "sess_1",
		Status:            provider.SessionStatusComplete,
		PaymentStatus:     provider.PaymentStatusPaid,
		ClientReferenceID: owner.String(),
	})
	payload := completedEvent("evt_1", "sess_1", owner)

	var wg sync.WaitGroup
	codes := make([]int, 4)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				codes[i] = s.verify(t, owner, "sess_1").Code
			} else {
				codes[i] = s.deliver(t, payload, sign(payload)).Code
			}
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int64(17), balanceOf(t, s, owner))

	// two webhook deliveries of evt_1 means two audit rows
	count, err := s.repos.Webhook.CountByEventID(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rec := s.verify(t, owner, "sess_1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"already_settled","credits_added":0,"balance":17}`, rec.Body.String())
}

func TestWebhookHandler_TamperedBody(t *testing.T) {
	s := newStack(t)
	owner := s.seedAccount(t, 2)
	payload := completedEvent("evt_2", "sess_2", owner)
	signature := sign(payload)
	tampered := []byte(strings.Replace(string(payload), `"metadata": {}`, `"metadata": {"credits": "1000"}`, 1))

	rec := s.deliver(t, tampered, signature)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domainerrors.KindProviderUnverifiable))
	count, err := s.repos.Webhook.CountByEventID(context.Background(), "evt_2")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, int64(2), balanceOf(t, s, owner))

	rec = s.deliver(t, payload, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandler_VerifyStatuses(t *testing.T) {
	s := newStack(t)
	owner := s.seedAccount(t, 0)

	s.provider.put(&provider.CheckoutSession{
		ID: "sess_open", Status: provider.SessionStatusOpen, PaymentStatus: provider.PaymentStatusUnpaid,
		ClientReferenceID: owner.String(),
	})
	s.provider.put(&provider.CheckoutSession{
		ID: "sess_expired", Status: provider.SessionStatusExpired, PaymentStatus: provider.PaymentStatusUnpaid,
		ClientReferenceID: owner.String(),
	})
	s.provider.put(&provider.CheckoutSession{
		ID: "sess_other", Status: provider.SessionStatusComplete, PaymentStatus: provider.PaymentStatusPaid,
		ClientReferenceID: uuid.New().String(),
	})

	cases := []struct {
		name    string
		session string
		status  int
		body    string
	}{
		{"pending payment", "sess_open", http.StatusAccepted, `"retry":true`},
		{"expired session", "sess_expired", http.StatusUnprocessableEntity, string(domainerrors.KindPaymentRejected)},
		{"someone else's session", "sess_other", http.StatusBadRequest, string(domainerrors.KindInvalidReference)},
		{"unknown session", "sess_missing", http.StatusBadRequest, string(domainerrors.KindInvalidReference)},
		{"missing session id", "", http.StatusBadRequest, string(domainerrors.KindInvalidReference)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.verify(t, owner, tc.session)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}

	assert.Zero(t, balanceOf(t, s, owner))
}

type stubCheckout struct {
	calls int
}

func (s *stubCheckout) CreateCheckout(_ context.Context, _ usecase.Principal, packageID string) (*usecase.CheckoutResult, error) {
	s.calls++
	if packageID != "basic" {
		return nil, domainerrors.NewInvalidReferenceError(packageID, "unknown package")
	}
	return &usecase.CheckoutResult{SessionID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}

func TestCheckoutHandler_CreateCheckout(t *testing.T) {
	e := echo.New()
	e.Validator = NewRequestValidator()
	stub := &stubCheckout{}
	h := NewCheckoutHandler(stub, zap.NewNop())

	call := func(body string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = req.WithContext(auth.WithUser(req.Context(), &auth.AuthUser{UserID: uuid.New(), Email: "a@b.c"}))
		rec := httptest.NewRecorder()
		return rec, h.CreateCheckout(e.NewContext(req, rec))
	}

	rec, err := call(`{"package_id":"basic"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"session_id":"cs_1","url":"https://checkout.example/cs_1"}`, rec.Body.String())

	_, err = call(`{}`)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	rec, err = call(`{"package_id":"gold"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, stub.calls)
}

func TestCreditHandler_AccountAndHistory(t *testing.T) {
	s := newStack(t)
	logger := zap.NewNop()
	credits := NewCreditHandler(logger,
		usecase.NewCreditService(s.repos.Account, logger),
		usecase.NewCreditTransactionService(s.repos.Credit, logger))

	owner := s.seedAccount(t, 2)
	s.provider.put(&provider.CheckoutSession{
		ID: "sess_hist", Status: provider.SessionStatusComplete, PaymentStatus: provider.PaymentStatusPaid,
		ClientReferenceID: owner.String(),
	})
	require.Equal(t, http.StatusOK, s.verify(t, owner, "sess_hist").Code)

	call := func(target string, h echo.HandlerFunc) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(auth.WithUser(req.Context(), &auth.AuthUser{UserID: owner, Email: "buyer@example.com"}))
		rec := httptest.NewRecorder()
		require.NoError(t, h(s.echo.NewContext(req, rec)))
		return rec
	}

	rec := call("/api/v1/account", credits.GetAccount)
	require.Equal(t, http.StatusOK, rec.Code)
	var account dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, owner, account.ID)
	assert.Equal(t, int64(17), account.Credits)
	assert.True(t, account.HasPaid)

	rec = call("/api/v1/credits", credits.GetUserCredits)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credits":17`)

	rec = call("/api/v1/credits/transactions?limit=1", credits.GetTransactionHistory)
	require.Equal(t, http.StatusOK, rec.Code)
	var history dto.TransactionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, int64(2), history.Pagination.Total)
	assert.True(t, history.Pagination.HasMore)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, string(model.TransactionTypePurchase), history.Transactions[0].TransactionType)
	assert.Equal(t, "sess_hist", history.Transactions[0].ReferenceID)
	assert.Equal(t, int64(17), history.Transactions[0].BalanceAfter)

	rec = call("/api/v1/credits/transactions?limit=abc", credits.GetTransactionHistory)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
