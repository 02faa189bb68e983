package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/catalog"
	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/domain/provider"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

// Principal is the authenticated caller.
type Principal struct {
	ID    uuid.UUID
	Email string
}

type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutService starts hosted checkouts for catalog packages.
type CheckoutService struct {
	provider  provider.PaymentProvider
	catalog   *catalog.Catalog
	accounts  domainRepo.AccountRepository
	sessions  domainRepo.CheckoutSessionRepository
	clientURL string
	logger    *zap.Logger
}

func NewCheckoutService(
	p provider.PaymentProvider,
	c *catalog.Catalog,
	accounts domainRepo.AccountRepository,
	sessions domainRepo.CheckoutSessionRepository,
	clientURL string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		provider:  p,
		catalog:   c,
		accounts:  accounts,
		sessions:  sessions,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
	}
}

// CreateCheckout records a pending session owned by the caller and returns
// the hosted checkout URL. The session carries the account as
// client_reference_id and the credit amount as metadata.
func (s *CheckoutService) CreateCheckout(ctx context.Context, principal Principal, packageID string) (*CheckoutResult, error) {
	pkg, err := s.catalog.ByID(packageID)
	if err != nil {
		return nil, domainerrors.NewInvalidReferenceError(packageID, "unknown package")
	}

	account, err := s.accounts.Ensure(ctx, principal.ID, principal.Email)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, account)
	if err != nil {
		return nil, err
	}

	accountID := account.ID.String()
	session, err := s.provider.CreateCheckoutSession(ctx, &provider.CreateCheckoutSessionRequest{
		PriceRef:          pkg.PriceRef,
		CustomerID:        customerID,
		ClientReferenceID: accountID,
		SuccessURL:        s.clientURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.clientURL + "/pricing",
		Metadata: map[string]string{
			"account_id": accountID,
			"package_id": pkg.ID,
			"credits":    strconv.FormatInt(pkg.Credits, 10),
		},
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("account_id", accountID),
			zap.String("package_id", pkg.ID),
			zap.Error(err))
		return nil, err
	}

	err = s.sessions.CreateIfAbsent(ctx, &model.CheckoutSession{
		SessionID:        session.ID,
		AccountID:        account.ID,
		PackageID:        pkg.ID,
		PriceRef:         pkg.PriceRef,
		RequestedCredits: pkg.Credits,
		Status:           model.CheckoutStatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Checkout session created",
		zap.String("account_id", accountID),
		zap.String("session_id", session.ID),
		zap.String("package_id", pkg.ID),
		zap.Int64("credits", pkg.Credits))

	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// ensureCustomer creates the provider customer at most once per account.
func (s *CheckoutService) ensureCustomer(ctx context.Context, account *model.Account) (string, error) {
	if account.StripeCustomerID != nil && *account.StripeCustomerID != "" {
		return *account.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, &provider.CreateCustomerRequest{
		AccountID:      account.ID.String(),
		Email:          account.Email,
		IdempotencyKey: "customer-" + account.ID.String(),
	})
	if err != nil {
		return "", err
	}

	stored, err := s.accounts.SetCustomerIDIfEmpty(ctx, account.ID, customerID)
	if err != nil {
		return "", err
	}
	if stored {
		return customerID, nil
	}

	current, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return "", err
	}
	if current.StripeCustomerID == nil {
		return "", errors.New("customer id was not stored")
	}
	return *current.StripeCustomerID, nil
}
