package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/dto"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

// CreditService serves the caller's account and balance. Accounts are
// created on first sight with a zero balance.
type CreditService struct {
	accounts domainRepo.AccountRepository
	logger   *zap.Logger
}

// NewCreditService creates a new credit service instance
func NewCreditService(accounts domainRepo.AccountRepository, logger *zap.Logger) *CreditService {
	return &CreditService{
		accounts: accounts,
		logger:   logger,
	}
}

// GetAccount returns the caller's profile, creating it when missing.
func (s *CreditService) GetAccount(ctx context.Context, principal Principal) (*dto.AccountResponse, error) {
	account, err := s.accounts.Ensure(ctx, principal.ID, principal.Email)
	if err != nil {
		s.logger.Error("Failed to load account",
			zap.String("account_id", principal.ID.String()),
			zap.Error(err))
		return nil, err
	}
	return dto.NewAccountResponse(account), nil
}

// GetCredits returns the caller's current balance.
func (s *CreditService) GetCredits(ctx context.Context, principal Principal) (*dto.CreditsResponse, error) {
	account, err := s.accounts.Ensure(ctx, principal.ID, principal.Email)
	if err != nil {
		s.logger.Error("Failed to load credit balance",
			zap.String("account_id", principal.ID.String()),
			zap.Error(err))
		return nil, err
	}
	return &dto.CreditsResponse{
		Credits:    account.Credits,
		UsageCount: account.UsageCount,
		HasPaid:    account.HasPaid,
	}, nil
}
