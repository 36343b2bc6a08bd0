package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gosuda/kanban/internal/domain"
)

// subscriberBuffer bounds how far a slow WebSocket reader may lag before the
// subscription goroutine blocks.
const subscriberBuffer = 64

// PubSub fans board events out over Redis channels: every event goes to the
// board's channel, and lifecycle events also go to the tenant channel that
// board-list views follow.
type PubSub struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

// PublishBoardEvent encodes ev once and publishes it to every channel that
// follows it in a single round trip.
func (ps *PubSub) PublishBoardEvent(ctx context.Context, tenantID uuid.UUID, ev domain.BoardEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishBoardEvent: marshal: %w", err)
	}

	channels := eventChannels(tenantID, ev)
	_, err = ps.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, ch := range channels {
			p.Publish(ctx, ch, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishBoardEvent %s: %w", ev.Type, err)
	}
	return nil
}

func eventChannels(tenantID uuid.UUID, ev domain.BoardEvent) []string {
	channels := []string{BoardChannel(tenantID, ev.BoardID)}
	if ev.Lifecycle() {
		channels = append(channels, TenantChannel(tenantID))
	}
	return channels
}

// Subscribe follows channel until ctx ends or cleanup is called. The returned
// channel is closed when the subscription stops.
func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subscriberBuffer)
	go forward(ctx, sub.Channel(), out)

	return out, func() { _ = sub.Close() }, nil
}

func forward(ctx context.Context, in <-chan *redis.Message, out chan<- []byte) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}

// Client exposes the underlying Redis client for components sharing the connection.
func (ps *PubSub) Client() *redis.Client {
	return ps.client
}

// BoardChannel returns the Redis channel for one board's events.
func BoardChannel(tenantID, boardID uuid.UUID) string {
	return "board:" + tenantID.String() + ":" + boardID.String()
}

// TenantChannel returns the Redis channel carrying a tenant's board creation
// and deletion events.
func TenantChannel(tenantID uuid.UUID) string {
	return "tenant:" + tenantID.String()
}
