package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/cvtoletter/backend/internal/domain/model"
)

// AccountResponse is the caller's own profile.
type AccountResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Credits    int64     `json:"credits"`
	HasPaid    bool      `json:"has_paid"`
	UsageCount int64     `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreditsResponse is the balance summary shown in the client header.
type CreditsResponse struct {
	Credits    int64 `json:"credits"`
	UsageCount int64 `json:"usage_count"`
	HasPaid    bool  `json:"has_paid"`
}

func NewAccountResponse(a *model.Account) *AccountResponse {
	return &AccountResponse{
		ID:         a.ID,
		Email:      a.Email,
		Credits:    a.Credits,
		HasPaid:    a.HasPaid,
		UsageCount: a.UsageCount,
		CreatedAt:  a.CreatedAt,
	}
}
