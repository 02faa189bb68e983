package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/cvtoletter/backend/internal/domain/model"
)

type CoverLetterRepository interface {
	Create(ctx context.Context, letter *model.CoverLetter) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*model.CoverLetter, error)
}
