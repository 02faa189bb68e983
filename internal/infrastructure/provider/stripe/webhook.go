package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/provider"
)

// WebhookVerifier checks Stripe-Signature headers with the endpoint secret.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewWebhookVerifier uses Stripe's default timestamp tolerance when tolerance is zero.
func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	if tolerance == 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &WebhookVerifier{secret: secret, tolerance: tolerance}
}

// Verify authenticates payload against the signature header and decodes it.
// Any failure is PROVIDER_UNVERIFIABLE and the payload must not be used.
func (v *WebhookVerifier) Verify(payload []byte, signature string) (*provider.WebhookEvent, error) {
	if signature == "" {
		return nil, domainerrors.NewProviderUnverifiableError("", fmt.Errorf("missing signature header"))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, domainerrors.NewProviderUnverifiableError("", err)
	}
	return decodeEvent(event)
}

// Parse decodes a stored payload that passed Verify when it was received.
func (v *WebhookVerifier) Parse(payload []byte) (*provider.WebhookEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domainerrors.NewProviderUnverifiableError("", err)
	}
	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (*provider.WebhookEvent, error) {
	out := &provider.WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		CreatedAt: time.Unix(event.Created, 0),
	}
	if event.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.EventType, "checkout.session."):
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, domainerrors.NewProviderUnverifiableError(event.ID, fmt.Errorf("decode checkout session: %w", err))
		}
		out.Session = toCheckoutSession(&session)

	case strings.HasPrefix(out.EventType, "payment_intent."):
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, domainerrors.NewProviderUnverifiableError(event.ID, fmt.Errorf("decode payment intent: %w", err))
		}
		out.PaymentIntent = toPaymentIntent(&intent)
		if intent.LastPaymentError != nil {
			out.FailureMessage = intent.LastPaymentError.Msg
		}
	}

	return out, nil
}
