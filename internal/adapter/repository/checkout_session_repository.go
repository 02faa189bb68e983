package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

type checkoutSessionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCheckoutSessionRepository creates a new checkout session repository
func NewCheckoutSessionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CheckoutSessionRepository {
	return &checkoutSessionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *checkoutSessionRepository) CreateIfAbsent(ctx context.Context, session *model.CheckoutSession) error {
	if session.Status == "" {
		session.Status = model.CheckoutStatusPending
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(session).Error
	if err != nil {
		r.logger.Error("Failed to create checkout session record",
			zap.String("session_id", session.SessionID),
			zap.Error(err))
		return classifyError(session.SessionID, err)
	}
	return nil
}

func (r *checkoutSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrCheckoutSessionNotFound
		}
		return nil, classifyError(sessionID, err)
	}
	return &session, nil
}

func (r *checkoutSessionRepository) Transition(ctx context.Context, sessionID string, from, to model.CheckoutStatus) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == model.CheckoutStatusCompleted {
		updates["completed_at"] = time.Now()
	}

	result := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("session_id = ? AND status = ?", sessionID, from).
		Updates(updates)
	if result.Error != nil {
		return false, classifyError(sessionID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *checkoutSessionRepository) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.CheckoutSession, error) {
	var sessions []*model.CheckoutSession

	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.CheckoutStatusPending, olderThan).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&sessions).Error; err != nil {
		r.logger.Error("Failed to list pending checkout sessions", zap.Error(err))
		return nil, classifyError("", err)
	}
	return sessions, nil
}
