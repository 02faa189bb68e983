package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/event"
	"github.com/cvtoletter/backend/pkg/messaging"
)

type recordingClient struct {
	channel string
	payload []byte
	err     error
}

func (c *recordingClient) Publish(_ context.Context, channel string, message interface{}) error {
	if c.err != nil {
		return c.err
	}
	c.channel = channel
	payload, err := json.Marshal(message)
	c.payload = payload
	return err
}

func (c *recordingClient) Subscribe(context.Context, string) (<-chan messaging.Message, error) {
	return nil, nil
}

func (c *recordingClient) Close() error { return nil }

func TestRedisPublisher_PublishCreditsApplied(t *testing.T) {
	evt := event.CreditsApplied{
		AccountID:    "acct-1",
		SessionID:    "sess_1",
		CreditsAdded: 15,
		Balance:      17,
		Source:       "webhook",
		OccurredAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("round trips through the envelope", func(t *testing.T) {
		client := &recordingClient{}
		pub := NewRedisPublisher(client, "ledger:credits", zap.NewNop())

		require.NoError(t, pub.PublishCreditsApplied(context.Background(), evt))
		assert.Equal(t, "ledger:credits", client.channel)

		decoded, err := DecodeCreditsApplied(client.payload)
		require.NoError(t, err)
		assert.Equal(t, evt, *decoded)
	})

	t.Run("client errors are returned", func(t *testing.T) {
		pub := NewRedisPublisher(&recordingClient{err: assert.AnError}, "ledger:credits", zap.NewNop())
		assert.ErrorIs(t, pub.PublishCreditsApplied(context.Background(), evt), assert.AnError)
	})

	t.Run("other event types are rejected", func(t *testing.T) {
		_, err := DecodeCreditsApplied([]byte(`{"type":"credits.refunded","data":{}}`))
		assert.Error(t, err)
	})
}
