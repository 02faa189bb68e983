package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/cvtoletter/backend/internal/domain/model"
)

type AccountRepository interface {
	// Ensure creates the account if missing and returns the stored row.
	Ensure(ctx context.Context, id uuid.UUID, email string) (*model.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// SetCustomerIDIfEmpty stores the provider customer only when none is set.
	// It reports whether this call stored it.
	SetCustomerIDIfEmpty(ctx context.Context, id uuid.UUID, customerID string) (bool, error)
}
