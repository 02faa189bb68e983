package provider

import (
	"context"
	"time"
)

// PaymentProvider is the payments backend seen by the ledger. Implementations
// return *errors.LedgerError values for provider failures.
type PaymentProvider interface {
	// CreateCustomer creates the provider-side customer for an account. The
	// idempotency key makes repeated calls for the same account return one customer.
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (string, error)

	// CreateCheckoutSession starts a hosted one-off payment.
	CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest) (*CheckoutSession, error)

	// GetCheckoutSession fetches the authoritative session state.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// GetPaymentIntent fetches the payment intent behind a session.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// ListLineItems lists the purchased items of a session.
	ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// WebhookVerifier authenticates webhook deliveries.
type WebhookVerifier interface {
	// Verify checks signature over the exact raw body and decodes the event.
	Verify(payload []byte, signature string) (*WebhookEvent, error)

	// Parse decodes an event that was verified when it was first received.
	Parse(payload []byte) (*WebhookEvent, error)
}

// SessionStatus is the lifecycle state of a checkout session.
type SessionStatus string

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

// PaymentStatus is whether funds were captured for a session.
type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

type CreateCustomerRequest struct {
	AccountID      string
	Email          string
	IdempotencyKey string
}

type CreateCheckoutSessionRequest struct {
	PriceRef   string
	CustomerID string
	// ClientReferenceID identifies the owning account on the returned session.
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
	IdempotencyKey    string
}

// CheckoutSession is the provider-agnostic view of a hosted checkout.
type CheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url,omitempty"`
	Status            SessionStatus     `json:"status"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	PaymentIntentID   string            `json:"payment_intent_id,omitempty"`
	CustomerID        string            `json:"customer_id,omitempty"`
	ClientReferenceID string            `json:"client_reference_id,omitempty"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	// LineItems is only set when the provider expanded them on the session.
	LineItems []LineItem `json:"line_items,omitempty"`
}

type PaymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type LineItem struct {
	PriceRef string `json:"price_ref"`
	Quantity int64  `json:"quantity"`
}

// WebhookEvent is a verified provider event. Session is set for checkout.session.* events,
// PaymentIntent for payment_intent.* events.
type WebhookEvent struct {
	EventID       string           `json:"event_id"`
	EventType     string           `json:"event_type"`
	Session       *CheckoutSession `json:"session,omitempty"`
	PaymentIntent *PaymentIntent   `json:"payment_intent,omitempty"`
	// FailureMessage carries the provider's last payment error, if any.
	FailureMessage string    `json:"failure_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Event types handled by the webhook endpoint
const (
	EventCheckoutSessionCompleted      = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired        = "checkout.session.expired"
	EventPaymentIntentSucceeded        = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed    = "payment_intent.payment_failed"
)

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeStripe ProviderType = "stripe"
)
