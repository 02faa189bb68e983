package event

import (
	"context"
	"time"
)

// CreditsApplied is published after a checkout session credited an account.
type CreditsApplied struct {
	AccountID    string    `json:"account_id"`
	SessionID    string    `json:"session_id"`
	CreditsAdded int64     `json:"credits_added"`
	Balance      int64     `json:"balance"`
	Source       string    `json:"source"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers ledger events to interested listeners. Delivery is best
// effort; the ledger is already committed when Publish is called.
type Publisher interface {
	PublishCreditsApplied(ctx context.Context, evt CreditsApplied) error
}
