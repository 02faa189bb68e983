package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

type coverLetterRepository struct {
	db *gorm.DB
}

func NewCoverLetterRepository(db *gorm.DB) domainRepo.CoverLetterRepository {
	return &coverLetterRepository{db: db}
}

func (r *coverLetterRepository) Create(ctx context.Context, letter *model.CoverLetter) error {
	if err := r.db.WithContext(ctx).Create(letter).Error; err != nil {
		return fmt.Errorf("failed to save cover letter: %w", err)
	}
	return nil
}

func (r *coverLetterRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*model.CoverLetter, error) {
	if limit <= 0 {
		limit = 20
	}

	var letters []*model.CoverLetter
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&letters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cover letters: %w", err)
	}
	return letters, nil
}
