package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/config"
	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/provider"
)

// StripeProvider implements provider.PaymentProvider with an injected Stripe
// API client; nothing here touches the package-level stripe.Key.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider creates a Stripe provider from configuration
func NewStripeProvider(cfg config.StripeConfig, logger *zap.Logger) *StripeProvider {
	backendConfig := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     newLeveledLogger(logger),
	}
	if cfg.APIBaseURL != "" {
		backendConfig.URL = stripe.String(cfg.APIBaseURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	}

	return &StripeProvider{
		api:    client.New(cfg.SecretKey, backends),
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

// CreateCustomer creates a Stripe customer tagged with the account id
func (s *StripeProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	params.AddMetadata("account_id", req.AccountID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	customer, err := s.api.Customers.New(params)
	if err != nil {
		return "", s.mapError("create customer", req.AccountID, err)
	}

	s.logger.Info("Stripe customer created",
		zap.String("account_id", req.AccountID),
		zap.String("customer_id", customer.ID))
	return customer.ID, nil
}

// CreateCheckoutSession creates a one-off hosted checkout for a single price
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req *provider.CreateCheckoutSessionRequest) (*provider.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceRef),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, s.mapError("create checkout session", req.ClientReferenceID, err)
	}

	s.logger.Info("Stripe checkout session created",
		zap.String("session_id", session.ID),
		zap.String("price_ref", req.PriceRef),
		zap.String("client_reference_id", req.ClientReferenceID))
	return toCheckoutSession(session), nil
}

// GetCheckoutSession fetches the authoritative session state
func (s *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*provider.CheckoutSession, error) {
	session, err := s.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, s.mapError("get checkout session", sessionID, err)
	}
	return toCheckoutSession(session), nil
}

// GetPaymentIntent fetches a payment intent
func (s *StripeProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*provider.PaymentIntent, error) {
	intent, err := s.api.PaymentIntents.Get(paymentIntentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, s.mapError("get payment intent", paymentIntentID, err)
	}
	return toPaymentIntent(intent), nil
}

// ListLineItems lists the purchased items of a session
func (s *StripeProvider) ListLineItems(ctx context.Context, sessionID string) ([]provider.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var items []provider.LineItem
	iter := s.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		items = append(items, toLineItem(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return nil, s.mapError("list line items", sessionID, err)
	}
	return items, nil
}

// mapError converts Stripe failures into ledger errors. Unknown objects are an
// invalid reference; everything else is treated as the provider being unavailable.
func (s *StripeProvider) mapError(op, ref string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		s.logger.Warn("Stripe API error",
			zap.String("operation", op),
			zap.String("reference", ref),
			zap.Int("status", stripeErr.HTTPStatusCode),
			zap.String("code", string(stripeErr.Code)),
			zap.String("message", stripeErr.Msg))

		if stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return domainerrors.NewInvalidReferenceError(ref, "unknown payment reference")
		}
		return domainerrors.NewProviderUnavailableError(ref, err)
	}

	s.logger.Warn("Stripe request failed",
		zap.String("operation", op),
		zap.String("reference", ref),
		zap.Error(err))
	return domainerrors.NewProviderUnavailableError(ref, err)
}
