package repository

import (
	"context"
	"time"

	"github.com/cvtoletter/backend/internal/domain/model"
)

type CheckoutSessionRepository interface {
	// CreateIfAbsent inserts a pending record; an existing row is left untouched.
	CreateIfAbsent(ctx context.Context, session *model.CheckoutSession) error
	// GetBySessionID returns errors.ErrCheckoutSessionNotFound when missing.
	GetBySessionID(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	// Transition moves a record from one status to another and reports
	// whether this call performed the move.
	Transition(ctx context.Context, sessionID string, from, to model.CheckoutStatus) (bool, error)
	// ListPending returns pending records created before olderThan, oldest first.
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.CheckoutSession, error)
}
