package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/dto"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

const maxDescriptionLength = 50

// CreditTransactionService handles credit transaction business logic
type CreditTransactionService struct {
	creditRepo domainRepo.CreditRepository
	logger     *zap.Logger
}

// NewCreditTransactionService creates a new credit transaction service
func NewCreditTransactionService(creditRepo domainRepo.CreditRepository, logger *zap.Logger) *CreditTransactionService {
	return &CreditTransactionService{
		creditRepo: creditRepo,
		logger:     logger,
	}
}

// GetTransactionHistory retrieves an account's transaction history, newest first
func (s *CreditTransactionService) GetTransactionHistory(
	ctx context.Context,
	accountID uuid.UUID,
	filters dto.TransactionFilters,
) (*dto.TransactionListResponse, error) {
	filters.AccountID = accountID
	filters.SetDefaults()

	transactions, total, err := s.creditRepo.GetTransactionHistory(ctx, accountID, filters.Limit, filters.Offset)
	if err != nil {
		s.logger.Error("failed to get transactions",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}

	items := make([]dto.CreditTransactionDTO, len(transactions))
	for i, tx := range transactions {
		description := tx.Description
		if len(description) > maxDescriptionLength {
			description = description[:maxDescriptionLength-3] + "..."
		}

		items[i] = dto.CreditTransactionDTO{
			TransactionType: string(tx.TransactionType),
			Amount:          tx.Amount,
			BalanceAfter:    tx.BalanceAfter,
			Description:     description,
			CreatedAt:       tx.CreatedAt,
		}
		if tx.ReferenceID != nil {
			items[i].ReferenceID = *tx.ReferenceID
		}
	}

	return &dto.TransactionListResponse{
		Transactions: items,
		Pagination: dto.PaginationInfo{
			Total:   total,
			Limit:   filters.Limit,
			Offset:  filters.Offset,
			HasMore: int64(filters.Offset+filters.Limit) < total,
		},
	}, nil
}
