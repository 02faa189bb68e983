package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

type accountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

// Ensure lazily creates the account. Concurrent first requests race on the
// primary key and both end up reading the same row.
func (r *accountRepository) Ensure(ctx context.Context, id uuid.UUID, email string) (*model.Account, error) {
	account := &model.Account{ID: id, Email: email}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(account)
	if result.Error != nil {
		r.logger.Error("Failed to ensure account",
			zap.String("account_id", id.String()),
			zap.Error(result.Error))
		return nil, classifyError(id.String(), result.Error)
	}
	if result.RowsAffected == 1 {
		r.logger.Info("Account created", zap.String("account_id", id.String()))
	}

	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// backfill email for rows created by reconciliation before the first login
	if stored.Email == "" && email != "" {
		if err := r.db.WithContext(ctx).
			Model(&model.Account{}).
			Where("id = ? AND email = ?", id, "").
			Updates(map[string]interface{}{"email": email, "updated_at": time.Now()}).Error; err != nil {
			return nil, classifyError(id.String(), err)
		}
		stored.Email = email
	}

	return stored, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAccountNotFound
		}
		return nil, classifyError(id.String(), err)
	}
	return &account, nil
}

func (r *accountRepository) SetCustomerIDIfEmpty(ctx context.Context, id uuid.UUID, customerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND stripe_customer_id IS NULL", id).
		Updates(map[string]interface{}{
			"stripe_customer_id": customerID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to store customer id",
			zap.String("account_id", id.String()),
			zap.String("customer_id", customerID),
			zap.Error(result.Error))
		return false, classifyError(id.String(), result.Error)
	}
	return result.RowsAffected == 1, nil
}
