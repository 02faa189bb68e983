package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is the per-user credit balance. The ID is the identity provider's user ID,
// so rows are created lazily on the first authenticated request.
type Account struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string    `gorm:"size:255" json:"email"`
	Credits          int64     `gorm:"not null;default:0;check:chk_profiles_credits_non_negative,credits >= 0" json:"credits"`
	HasPaid          bool      `gorm:"not null;default:false" json:"has_paid"`
	UsageCount       int64     `gorm:"not null;default:0" json:"usage_count"`
	StripeCustomerID *string   `gorm:"size:100;uniqueIndex:idx_profiles_stripe_customer" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "profiles"
}
