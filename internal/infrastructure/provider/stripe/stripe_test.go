package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/config"
	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/provider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewStripeProvider(config.StripeConfig{
		SecretKey:  "sk_test_123",
		APIBaseURL: srv.URL,
	}, zap.NewNop())
}

func TestStripeProvider_GetCheckoutSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/checkout/sessions/sess_1":
			_, _ = w.Write([]byte(`{"id":"sess_1","object":"checkout.session","status":"complete",
				"payment_status":"paid","client_reference_id":"acc_1","payment_intent":"pi_1",
				"metadata":{"credits":"15"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing",
				"message":"No such checkout.session"}}`))
		}
	})

	session, err := p.GetCheckoutSession(context.Background(), "sess_1")
	require.NoError(t, err)
	assert.Equal(t, provider.PaymentStatusPaid, session.PaymentStatus)
	assert.Equal(t, "acc_1", session.ClientReferenceID)
	assert.Equal(t, "pi_1", session.PaymentIntentID)

	_, err = p.GetCheckoutSession(context.Background(), "sess_missing")
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindInvalidReference))
}

func TestStripeProvider_ListLineItems(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/sess_1/line_items", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","has_more":false,"url":"/v1/checkout/sessions/sess_1/line_items",
			"data":[{"id":"li_1","object":"item","quantity":1,"price":{"id":"P_BASIC","object":"price"}}]}`))
	})

	items, err := p.ListLineItems(context.Background(), "sess_1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "P_BASIC", items[0].PriceRef)
	assert.Equal(t, int64(1), items[0].Quantity)
}

func TestStripeProvider_ServerErrorIsRetriable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"try again"}}`))
	})

	_, err := p.GetPaymentIntent(context.Background(), "pi_1")
	require.Error(t, err)
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnavailable))
	assert.True(t, domainerrors.IsRetriable(err))
}

func TestStripeProvider_CreateCheckoutSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "payment", r.Form.Get("mode"))
		assert.Equal(t, "P_BASIC", r.Form.Get("line_items[0][price]"))
		assert.Equal(t, "acc_1", r.Form.Get("client_reference_id"))
		assert.Equal(t, "15", r.Form.Get("metadata[credits]"))
		assert.Equal(t, "15", r.Form.Get("payment_intent_data[metadata][credits]"))
		assert.Equal(t, "checkout-acc_1-1", r.Header.Get("Idempotency-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sess_new","object":"checkout.session","status":"open",
			"payment_status":"unpaid","url":"https://checkout.stripe.com/c/pay/sess_new"}`))
	})

	session, err := p.CreateCheckoutSession(context.Background(), &provider.CreateCheckoutSessionRequest{
		PriceRef:          "P_BASIC",
		ClientReferenceID: "acc_1",
		SuccessURL:        "https://app.example.com/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         "https://app.example.com/pricing",
		Metadata:          map[string]string{"credits": "15"},
		IdempotencyKey:    "checkout-acc_1-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess_new", session.ID)
	assert.Equal(t, provider.SessionStatusOpen, session.Status)
	assert.NotEmpty(t, session.URL)
}
