package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/provider"
)

const testSecret = "whsec_test_secret"

const completedEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "created": 1700000000,
  "data": {
    "object": {
      "id": "sess_1",
      "object": "checkout.session",
      "status": "complete",
      "payment_status": "paid",
      "client_reference_id": "4a7c0b9e-3f43-4c8b-9d7e-2f0c3e6a1b55",
      "customer": "cus_1",
      "payment_intent": "pi_1",
      "amount_total": 999,
      "currency": "usd",
      "metadata": {"credits": "15", "package_id": "basic"}
    }
  }
}`

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func TestWebhookVerifier_Verify(t *testing.T) {
	v := NewWebhookVerifier(testSecret, 0)
	payload := []byte(completedEvent)

	t.Run("valid signature", func(t *testing.T) {
		event, err := v.Verify(payload, sign(payload, testSecret))
		require.NoError(t, err)

		assert.Equal(t, "evt_1", event.EventID)
		assert.Equal(t, provider.EventCheckoutSessionCompleted, event.EventType)
		require.NotNil(t, event.Session)
		assert.Equal(t, "sess_1", event.Session.ID)
		assert.Equal(t, provider.PaymentStatusPaid, event.Session.PaymentStatus)
		assert.Equal(t, provider.SessionStatusComplete, event.Session.Status)
		assert.Equal(t, "pi_1", event.Session.PaymentIntentID)
		assert.Equal(t, "cus_1", event.Session.CustomerID)
		assert.Equal(t, "15", event.Session.Metadata["credits"])
	})

	t.Run("tampered body", func(t *testing.T) {
		header := sign(payload, testSecret)
		tampered := []byte(completedEvent[:len(completedEvent)-2] + " }")
		_, err := v.Verify(tampered, header)
		assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnverifiable))
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(payload, sign(payload, "whsec_other"))
		assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnverifiable))
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := v.Verify(payload, "")
		assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnverifiable))
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   payload,
			Secret:    testSecret,
			Timestamp: time.Now().Add(-time.Hour),
		}).Header
		_, err := v.Verify(payload, header)
		assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnverifiable))
	})
}

func TestWebhookVerifier_Parse(t *testing.T) {
	v := NewWebhookVerifier(testSecret, 0)

	event, err := v.Parse([]byte(`{
	  "id": "evt_2",
	  "type": "payment_intent.payment_failed",
	  "created": 1700000000,
	  "data": {"object": {"id": "pi_2", "object": "payment_intent", "status": "requires_payment_method",
	    "amount": 499, "last_payment_error": {"message": "Your card was declined."}}}
	}`))
	require.NoError(t, err)
	require.NotNil(t, event.PaymentIntent)
	assert.Equal(t, "pi_2", event.PaymentIntent.ID)
	assert.Equal(t, "Your card was declined.", event.FailureMessage)

	_, err = v.Parse([]byte(`not json`))
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnverifiable))
}
