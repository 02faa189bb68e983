package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// CheckoutStatus moves pending -> completed exactly once.
type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusCompleted CheckoutStatus = "completed"
)

// Scan implements sql.Scanner interface
func (s *CheckoutStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = CheckoutStatus(v)
	case []byte:
		*s = CheckoutStatus(v)
	default:
		*s = CheckoutStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s CheckoutStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// SettlementSource records which entry point applied the credits.
type SettlementSource string

const (
	SettledViaRedirect SettlementSource = "redirect"
	SettledViaWebhook  SettlementSource = "webhook"
	SettledViaManual   SettlementSource = "manual"
)

// CheckoutSession tracks one provider checkout session. The pending -> completed
// transition is the idempotency claim for crediting the account.
type CheckoutSession struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID        string         `gorm:"size:255;not null;uniqueIndex:idx_checkout_sessions_session_id" json:"session_id"`
	AccountID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	PackageID        string         `gorm:"size:50" json:"package_id,omitempty"`
	PriceRef         string         `gorm:"size:100" json:"price_ref,omitempty"`
	RequestedCredits int64          `gorm:"not null;default:0" json:"requested_credits"`
	Status           CheckoutStatus `gorm:"size:20;not null;index" json:"status"`
	CreditsApplied   int64          `gorm:"not null;default:0" json:"credits_applied"`
	SettledVia       *string        `gorm:"size:20" json:"settled_via,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

func (s *CheckoutSession) IsCompleted() bool {
	return s.Status == CheckoutStatusCompleted
}
