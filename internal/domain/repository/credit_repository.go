package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/cvtoletter/backend/internal/domain/model"
)

// SettleRequest describes one completed payment to apply to the ledger.
type SettleRequest struct {
	SessionID string
	AccountID uuid.UUID
	PackageID string
	PriceRef  string
	Credits   int64
	Source    model.SettlementSource
	// CustomerID is stored on the account when it has none yet.
	CustomerID string
}

// SettleResult reports whether this call won the claim. When Claimed is false
// nothing was written and Balance is the current balance.
type SettleResult struct {
	Claimed      bool
	CreditsAdded int64
	Balance      int64
	Session      *model.CheckoutSession
}

// CreditRepository is the ledger store. All balance mutations are single
// conditional SQL statements; Settle runs claim and apply in one transaction.
type CreditRepository interface {
	// GetBalance returns the account, or errors.ErrAccountNotFound.
	GetBalance(ctx context.Context, accountID uuid.UUID) (*model.Account, error)

	// IncrementCredits adds delta (may be negative) and records a transaction.
	// A negative delta never drives the balance below zero.
	IncrementCredits(ctx context.Context, accountID uuid.UUID, delta int64, txType model.TransactionType, description string) (*model.CreditTransaction, error)

	// UseCredits atomically deducts amount when the balance covers it and
	// returns an INSUFFICIENT_CREDITS ledger error otherwise.
	UseCredits(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*model.CreditTransaction, error)

	// RecordUsage increments usage_count.
	RecordUsage(ctx context.Context, accountID uuid.UUID) error

	// Settle claims the checkout session (pending -> completed) and, only when
	// the claim succeeds, credits the account in the same database transaction.
	Settle(ctx context.Context, req SettleRequest) (*SettleResult, error)

	// GetTransactionHistory returns newest first together with the total count.
	GetTransactionHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, int64, error)
}
