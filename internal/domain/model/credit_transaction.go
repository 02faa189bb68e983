package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the type of credit transaction
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeUsage      TransactionType = "usage"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// Scan implements sql.Scanner interface
func (t *TransactionType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = TransactionType(v)
	case []byte:
		*t = TransactionType(v)
	}
	return nil
}

// Value implements driver.Valuer interface
func (t TransactionType) Value() (driver.Value, error) {
	return string(t), nil
}

// CreditTransaction is one signed movement of an account's balance.
type CreditTransaction struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_transactions_account_created,priority:1" json:"account_id"`
	TransactionType TransactionType `gorm:"size:20;not null" json:"transaction_type"`
	Amount          int64           `gorm:"not null" json:"amount"`
	BalanceAfter    int64           `gorm:"not null" json:"balance_after"`
	Description     string          `gorm:"not null" json:"description"`
	// ReferenceID is the checkout session for purchases; unique when set.
	ReferenceID *string   `gorm:"size:255;uniqueIndex:idx_credit_transactions_reference" json:"reference_id,omitempty"`
	CreatedAt   time.Time `gorm:"index:idx_credit_transactions_account_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
