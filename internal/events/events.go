// Package events carries forecast update notifications over a redis pub/sub
// channel, so the export worker and the dashboard gateway can react to
// recalculations without the engine knowing about either of them.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/redis/go-redis/v9"
)

// UpdateChannel is the redis channel forecast updates are published on.
const UpdateChannel = "forecast:updates"

// Publisher broadcasts forecast updates.
type Publisher interface {
	PublishUpdate(ctx context.Context, update domain.ForecastUpdate) error
}

// NoopPublisher drops updates; used when redis is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishUpdate(ctx context.Context, update domain.ForecastUpdate) error {
	return nil
}

type redisPublisher struct {
	client *redis.Client
}

// NewPublisher wraps a redis client as an update publisher.
func NewPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

func (p *redisPublisher) PublishUpdate(ctx context.Context, update domain.ForecastUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode forecast update: %w", err)
	}
	if err := p.client.Publish(ctx, UpdateChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish forecast update: %w", err)
	}
	return nil
}

// Subscriber receives forecast updates from the channel.
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Listen delivers decoded updates to handler until ctx is cancelled.
// Malformed payloads are skipped.
func (s *Subscriber) Listen(ctx context.Context, handler func(domain.ForecastUpdate)) error {
	sub := s.client.Subscribe(ctx, UpdateChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var update domain.ForecastUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				continue
			}
			handler(update)
		}
	}
}
