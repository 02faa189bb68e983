package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cvtoletter/backend/internal/adapter/repository"
	domainRepo "github.com/cvtoletter/backend/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Account         domainRepo.AccountRepository
	Credit          domainRepo.CreditRepository
	CheckoutSession domainRepo.CheckoutSessionRepository
	Webhook         domainRepo.WebhookLogRepository
	CoverLetter     domainRepo.CoverLetterRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Account:         repository.NewAccountRepository(db, logger),
		Credit:          repository.NewCreditRepository(db, logger),
		CheckoutSession: repository.NewCheckoutSessionRepository(db, logger),
		Webhook:         repository.NewWebhookRepository(db, logger),
		CoverLetter:     repository.NewCoverLetterRepository(db),
	}
}
