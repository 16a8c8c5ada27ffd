package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "debatecoach:columns"

// RedisMirror publishes updates as JSON on "<channel>:<session_id>".
type RedisMirror struct {
	client  *redis.Client
	channel string
}

// NewRedisMirror connects lazily to the server at rawURL. A value that does
// not parse as a redis:// URL is used as a host:port address.
func NewRedisMirror(rawURL, channel string) *RedisMirror {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		opt = &redis.Options{Addr: rawURL}
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisMirror{client: redis.NewClient(opt), channel: channel}
}

// Channel returns the redis channel for a session.
func (m *RedisMirror) Channel(u Update) string {
	return m.channel + ":" + string(u.SessionID)
}

func (m *RedisMirror) Mirror(ctx context.Context, u Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	if err := m.client.Publish(ctx, m.Channel(u), data).Err(); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (m *RedisMirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}
