package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookOutcome is what processing a logged event resulted in.
type WebhookOutcome string

const (
	WebhookOutcomeReceived WebhookOutcome = "received"
	WebhookOutcomeApplied  WebhookOutcome = "applied"
	WebhookOutcomeSettled  WebhookOutcome = "already_settled"
	WebhookOutcomePending  WebhookOutcome = "pending"
	WebhookOutcomeRejected WebhookOutcome = "rejected"
	WebhookOutcomeIgnored  WebhookOutcome = "ignored"
	WebhookOutcomeFailed   WebhookOutcome = "failed"
)

// WebhookLog is an append-only audit row per verified delivery. Provider retries
// of the same event append new rows; EventID is indexed but not unique.
type WebhookLog struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID      string         `gorm:"size:255;not null;index" json:"event_id"`
	EventType    string         `gorm:"size:100;not null;index" json:"event_type"`
	Payload      datatypes.JSON `json:"payload"`
	Processed    bool           `gorm:"not null;default:false;index:idx_webhook_logs_retry,priority:1" json:"processed"`
	Outcome      WebhookOutcome `gorm:"size:30;not null" json:"outcome"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Attempts     int            `gorm:"not null;default:0" json:"attempts"`
	NextRetryAt  *time.Time     `gorm:"index:idx_webhook_logs_retry,priority:2" json:"next_retry_at,omitempty"`
	ReceivedAt   time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
