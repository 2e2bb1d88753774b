// Package events publishes remark-change notifications so other processes
// (a live dashboard, an audit consumer) can react without polling.
//
// Publishing is best-effort: a failed publish is logged by the caller and
// never fails the request that triggered it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChannelRemarkChanged is the Redis pub/sub channel remark events go to.
const ChannelRemarkChanged = "EVENT_REMARK_CHANGED"

// Type names what happened to a remark.
type Type string

const (
	RemarkAdded   Type = "remark.added"
	RemarkEdited  Type = "remark.edited"
	RemarkDeleted Type = "remark.deleted"
)

// RemarkEvent is the JSON payload published on ChannelRemarkChanged.
type RemarkEvent struct {
	Type        Type      `json:"type"`
	CandidateID string    `json:"candidateId"`
	RemarkID    string    `json:"remarkId"`
	Rating      *float64  `json:"rating,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher delivers remark events.
type Publisher interface {
	Publish(ctx context.Context, ev RemarkEvent) error
}

// Nop discards every event. It is used when no REDIS_URL is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, RemarkEvent) error { return nil }

// RedisPublisher publishes events with Redis PUBLISH.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisClient parses redisURL, connects and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedisPublisher wraps an already-connected client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: ChannelRemarkChanged}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, ev RemarkEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding remark event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", p.channel, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
