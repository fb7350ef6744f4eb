// File: internal/infra/redis/event_publisher.go
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"planvault/internal/domain/ports/adapter"
)

var _ adapter.EventSink = (*EventPublisher)(nil)

// EventPublisher emits the registry's mutation events on a Redis channel.
// Off-platform indexers subscribe to the channel; delivery beyond the single
// PUBLISH is their problem, not ours.
type EventPublisher struct {
	cli     *Client
	channel string
}

func NewEventPublisher(cli *Client, channel string) *EventPublisher {
	if channel == "" {
		channel = "planvault.events"
	}
	return &EventPublisher{cli: cli, channel: channel}
}

// envelope stamps each event with a unique id so indexers can dedupe replays.
type envelope struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	EmittedAt time.Time `json:"emitted_at"`
	Payload   any       `json:"payload"`
}

func (p *EventPublisher) Publish(ctx context.Context, topic string, payload any) error {
	b, err := json.Marshal(envelope{
		ID:        uuid.NewString(),
		Topic:     topic,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	return p.cli.cli.Publish(ctx, p.channel, b).Err()
}
