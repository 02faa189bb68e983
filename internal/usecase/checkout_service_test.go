package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/domain/provider"
	"github.com/cvtoletter/backend/internal/usecase"
)

func TestCheckoutService_CreateCheckout(t *testing.T) {
	ctx := context.Background()
	principal := usecase.Principal{ID: uuid.New(), Email: "buyer@example.com"}

	newService := func(t *testing.T) (*usecase.CheckoutService, *MockPaymentProvider, *MockAccountRepository, *MockCheckoutSessionRepository) {
		p := new(MockPaymentProvider)
		accounts := new(MockAccountRepository)
		sessions := new(MockCheckoutSessionRepository)
		svc := usecase.NewCheckoutService(p, testCatalog(t), accounts, sessions, "https://app.example.com/", zap.NewNop())
		return svc, p, accounts, sessions
	}

	t.Run("first purchase creates the customer once and records a pending session", func(t *testing.T) {
		svc, p, accounts, sessions := newService(t)

		accounts.On("Ensure", mock.Anything, principal.ID, principal.Email).
			Return(&model.Account{ID: principal.ID, Email: principal.Email}, nil)
		p.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(req *provider.CreateCustomerRequest) bool {
			return req.IdempotencyKey == "customer-"+principal.ID.String() && req.Email == principal.Email
		})).Return("cus_1", nil).Once()
		accounts.On("SetCustomerIDIfEmpty", mock.Anything, principal.ID, "cus_1").Return(true, nil)
		p.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.PriceRef == "P_BASIC" &&
				req.CustomerID == "cus_1" &&
				req.ClientReferenceID == principal.ID.String() &&
				req.Metadata["credits"] == "15" &&
				req.Metadata["package_id"] == "basic" &&
				req.SuccessURL == "https://app.example.com/success?session_id={CHECKOUT_SESSION_ID}"
		})).Return(&provider.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil)
		sessions.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(s *model.CheckoutSession) bool {
			return s.SessionID == "cs_test_1" && s.AccountID == principal.ID &&
				s.RequestedCredits == 15 && s.Status == model.CheckoutStatusPending
		})).Return(nil)

		res, err := svc.CreateCheckout(ctx, principal, "basic")

		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", res.SessionID)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", res.URL)
		p.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("existing customer is reused", func(t *testing.T) {
		svc, p, accounts, sessions := newService(t)
		customer := "cus_existing"

		accounts.On("Ensure", mock.Anything, principal.ID, principal.Email).
			Return(&model.Account{ID: principal.ID, StripeCustomerID: &customer}, nil)
		p.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.CustomerID == customer
		})).Return(&provider.CheckoutSession{ID: "cs_test_2", URL: "https://checkout"}, nil)
		sessions.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.CreateCheckout(ctx, principal, "starter")

		require.NoError(t, err)
		p.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("lost customer race uses the stored customer", func(t *testing.T) {
		svc, p, accounts, sessions := newService(t)
		stored := "cus_winner"

		accounts.On("Ensure", mock.Anything, principal.ID, principal.Email).
			Return(&model.Account{ID: principal.ID}, nil)
		p.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_loser", nil)
		accounts.On("SetCustomerIDIfEmpty", mock.Anything, principal.ID, "cus_loser").Return(false, nil)
		accounts.On("GetByID", mock.Anything, principal.ID).
			Return(&model.Account{ID: principal.ID, StripeCustomerID: &stored}, nil)
		p.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.CustomerID == stored
		})).Return(&provider.CheckoutSession{ID: "cs_test_3", URL: "https://checkout"}, nil)
		sessions.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.CreateCheckout(ctx, principal, "premium")

		require.NoError(t, err)
		p.AssertExpectations(t)
	})

	t.Run("unknown package", func(t *testing.T) {
		svc, p, _, _ := newService(t)

		_, err := svc.CreateCheckout(ctx, principal, "gold")

		assert.True(t, domainerrors.IsKind(err, domainerrors.KindInvalidReference))
		p.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("provider failure does not record a session", func(t *testing.T) {
		svc, p, accounts, sessions := newService(t)
		customer := "cus_1"

		accounts.On("Ensure", mock.Anything, principal.ID, principal.Email).
			Return(&model.Account{ID: principal.ID, StripeCustomerID: &customer}, nil)
		p.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, domainerrors.NewProviderUnavailableError("", assert.AnError))

		_, err := svc.CreateCheckout(ctx, principal, "basic")

		assert.True(t, domainerrors.IsKind(err, domainerrors.KindProviderUnavailable))
		sessions.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	})
}
