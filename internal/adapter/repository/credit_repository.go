package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

// creditRepository implements the CreditRepository interface
type creditRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCreditRepository creates a new credit repository instance
func NewCreditRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CreditRepository {
	return &creditRepository{
		db:     db,
		logger: logger,
	}
}

// GetBalance retrieves the account row holding the balance
func (r *creditRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAccountNotFound
		}
		return nil, classifyError(accountID.String(), err)
	}
	return &account, nil
}

// IncrementCredits adds delta to the balance and records the movement
func (r *creditRepository) IncrementCredits(ctx context.Context, accountID uuid.UUID, delta int64, txType model.TransactionType, description string) (*model.CreditTransaction, error) {
	var transaction *model.CreditTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&model.Account{}).Where("id = ?", accountID)
		if delta < 0 {
			query = query.Where("credits >= ?", -delta)
		}
		result := query.Updates(map[string]interface{}{
			"credits":    gorm.Expr("credits + ?", delta),
			"updated_at": time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.missingOrInsufficient(tx, accountID)
		}

		balance, err := currentBalance(tx, accountID)
		if err != nil {
			return err
		}

		transaction = &model.CreditTransaction{
			AccountID:       accountID,
			TransactionType: txType,
			Amount:          delta,
			BalanceAfter:    balance,
			Description:     description,
		}
		return tx.Create(transaction).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return nil, err
		}
		return nil, classifyError(accountID.String(), err)
	}

	r.logger.Info("Credits adjusted",
		zap.String("account_id", accountID.String()),
		zap.String("type", string(txType)),
		zap.Int64("delta", delta),
		zap.Int64("balance_after", transaction.BalanceAfter))

	return transaction, nil
}

// UseCredits deducts amount only when the balance covers it
func (r *creditRepository) UseCredits(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("use credits: amount must be positive, got %d", amount)
	}
	return r.IncrementCredits(ctx, accountID, -amount, model.TransactionTypeUsage, description)
}

// RecordUsage increments the account's usage counter
func (r *creditRepository) RecordUsage(ctx context.Context, accountID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return classifyError(accountID.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}
	return nil
}

// Settle claims the session and applies the credits atomically. The claim is
// the conditional pending -> completed update; exactly one caller can see one
// affected row for a given session, so the increment happens at most once.
func (r *creditRepository) Settle(ctx context.Context, req domainRepo.SettleRequest) (*domainRepo.SettleResult, error) {
	if req.Credits <= 0 {
		return nil, domainerrors.NewResolutionIndeterminateError(req.SessionID)
	}

	result := &domainRepo.SettleResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// a session first observed here still needs a row to claim
		pending := &model.CheckoutSession{
			SessionID:        req.SessionID,
			AccountID:        req.AccountID,
			PackageID:        req.PackageID,
			PriceRef:         req.PriceRef,
			RequestedCredits: req.Credits,
			Status:           model.CheckoutStatusPending,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(pending).Error; err != nil {
			return fmt.Errorf("insert checkout session: %w", err)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&model.Account{ID: req.AccountID}).Error; err != nil {
			return fmt.Errorf("ensure account: %w", err)
		}

		now := time.Now()
		source := string(req.Source)
		claim := tx.Model(&model.CheckoutSession{}).
			Where("session_id = ? AND status = ?", req.SessionID, model.CheckoutStatusPending).
			Updates(map[string]interface{}{
				"status":          model.CheckoutStatusCompleted,
				"credits_applied": req.Credits,
				"settled_via":     &source,
				"completed_at":    &now,
				"updated_at":      now,
			})
		if claim.Error != nil {
			return fmt.Errorf("claim checkout session: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return nil
		}
		result.Claimed = true

		apply := tx.Model(&model.Account{}).
			Where("id = ?", req.AccountID).
			Updates(map[string]interface{}{
				"credits":    gorm.Expr("credits + ?", req.Credits),
				"has_paid":   true,
				"updated_at": now,
			})
		if apply.Error != nil {
			return fmt.Errorf("apply credits: %w", apply.Error)
		}
		if apply.RowsAffected != 1 {
			return fmt.Errorf("apply credits: account %s not updated", req.AccountID)
		}

		if req.CustomerID != "" {
			if err := tx.Model(&model.Account{}).
				Where("id = ? AND stripe_customer_id IS NULL", req.AccountID).
				Where("NOT EXISTS (?)", tx.Model(&model.Account{}).Select("1").Where("stripe_customer_id = ?", req.CustomerID)).
				Update("stripe_customer_id", req.CustomerID).Error; err != nil {
				return fmt.Errorf("store customer id: %w", err)
			}
		}

		balance, err := currentBalance(tx, req.AccountID)
		if err != nil {
			return err
		}
		result.Balance = balance
		result.CreditsAdded = req.Credits

		ref := req.SessionID
		return tx.Create(&model.CreditTransaction{
			AccountID:       req.AccountID,
			TransactionType: model.TransactionTypePurchase,
			Amount:          req.Credits,
			BalanceAfter:    balance,
			Description:     fmt.Sprintf("Purchase of %d credits (%s)", req.Credits, req.Source),
			ReferenceID:     &ref,
		}).Error
	})
	if err != nil {
		r.logger.Error("Failed to settle checkout session",
			zap.String("session_id", req.SessionID),
			zap.String("account_id", req.AccountID.String()),
			zap.Error(err))
		return nil, classifyError(req.SessionID, err)
	}

	var session model.CheckoutSession
	if err := r.db.WithContext(ctx).Where("session_id = ?", req.SessionID).First(&session).Error; err != nil {
		return nil, classifyError(req.SessionID, err)
	}
	result.Session = &session

	if !result.Claimed {
		balance, err := currentBalance(r.db.WithContext(ctx), session.AccountID)
		if err != nil {
			return nil, classifyError(req.SessionID, err)
		}
		result.Balance = balance
		r.logger.Info("Checkout session already settled",
			zap.String("session_id", req.SessionID),
			zap.String("settled_via", derefString(session.SettledVia)),
			zap.String("attempted_via", string(req.Source)))
		return result, nil
	}

	r.logger.Info("Checkout session settled",
		zap.String("session_id", req.SessionID),
		zap.String("account_id", req.AccountID.String()),
		zap.Int64("credits_added", result.CreditsAdded),
		zap.Int64("balance", result.Balance),
		zap.String("settled_via", string(req.Source)))

	return result, nil
}

// GetTransactionHistory retrieves transaction history for an account
func (r *creditRepository) GetTransactionHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*model.CreditTransaction, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("account_id = ?", accountID).
		Count(&total).Error; err != nil {
		return nil, 0, classifyError(accountID.String(), err)
	}

	var transactions []*model.CreditTransaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error; err != nil {
		return nil, 0, classifyError(accountID.String(), err)
	}

	return transactions, total, nil
}

func (r *creditRepository) missingOrInsufficient(tx *gorm.DB, accountID uuid.UUID) error {
	balance, err := currentBalance(tx, accountID)
	if err != nil {
		return err
	}
	return domainerrors.NewInsufficientCreditsError(accountID.String(), balance)
}

func currentBalance(tx *gorm.DB, accountID uuid.UUID) (int64, error) {
	var account model.Account
	err := tx.Select("credits").Where("id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domainerrors.ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return account.Credits, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
