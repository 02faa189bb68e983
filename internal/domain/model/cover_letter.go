package model

import (
	"time"

	"github.com/google/uuid"
)

// CoverLetter stores a generated letter for the account's history.
type CoverLetter struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	FileID         string    `gorm:"size:255" json:"file_id"`
	JobDescription string    `gorm:"type:text;not null" json:"job_description"`
	Content        string    `gorm:"type:text;not null" json:"cover_letter"`
	MatchScore     *float64  `json:"match_score,omitempty"`
	Source         string    `gorm:"size:50" json:"source"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CoverLetter) TableName() string {
	return "cover_letters"
}
