package stripe

import (
	"github.com/stripe/stripe-go/v79"

	"github.com/cvtoletter/backend/internal/domain/provider"
)

func toCheckoutSession(s *stripe.CheckoutSession) *provider.CheckoutSession {
	if s == nil {
		return nil
	}

	out := &provider.CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		Status:            provider.SessionStatus(s.Status),
		PaymentStatus:     provider.PaymentStatus(s.PaymentStatus),
		ClientReferenceID: s.ClientReferenceID,
		AmountTotal:       s.AmountTotal,
		Currency:          string(s.Currency),
		Metadata:          s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.LineItems != nil {
		for _, item := range s.LineItems.Data {
			out.LineItems = append(out.LineItems, toLineItem(item))
		}
	}
	return out
}

func toPaymentIntent(pi *stripe.PaymentIntent) *provider.PaymentIntent {
	if pi == nil {
		return nil
	}
	return &provider.PaymentIntent{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Metadata: pi.Metadata,
	}
}

func toLineItem(item *stripe.LineItem) provider.LineItem {
	out := provider.LineItem{Quantity: item.Quantity}
	if item.Price != nil {
		out.PriceRef = item.Price.ID
	}
	return out
}
