// Package messaging publishes ledger events to subscribers outside the service.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/event"
	"github.com/cvtoletter/backend/pkg/messaging"
)

// Envelope is the wire format on the credits channel.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const TypeCreditsApplied = "credits.applied"

// RedisPublisher fans CreditsApplied events out over Redis pub/sub.
type RedisPublisher struct {
	client  messaging.RedisClient
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(client messaging.RedisClient, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (p *RedisPublisher) PublishCreditsApplied(ctx context.Context, evt event.CreditsApplied) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal credits event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, Envelope{Type: TypeCreditsApplied, Data: data}); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}

	p.logger.Debug("Published credits event",
		zap.String("channel", p.channel),
		zap.String("account_id", evt.AccountID),
		zap.String("session_id", evt.SessionID))
	return nil
}

// DecodeCreditsApplied parses a message received on the credits channel.
func DecodeCreditsApplied(payload []byte) (*event.CreditsApplied, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type != TypeCreditsApplied {
		return nil, fmt.Errorf("unexpected event type %q", env.Type)
	}

	var evt event.CreditsApplied
	if err := json.Unmarshal(env.Data, &evt); err != nil {
		return nil, fmt.Errorf("decode credits event: %w", err)
	}
	return &evt, nil
}

// NoopPublisher is used when Redis is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishCreditsApplied(context.Context, event.CreditsApplied) error {
	return nil
}
