// Package redisstream mirrors bus events into a Redis stream with XADD.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/eventbus"
)

// Config describes the Redis connection and target stream.
type Config struct {
	Address  string
	Password string
	DB       int
	Stream   string
	// MaxLen caps the stream approximately; 0 keeps every entry.
	MaxLen int64
}

// Entry is a bus payload that can be written to the stream.
type Entry interface {
	StreamValues() map[string]any
}

type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Sink appends entries to one stream.
type Sink struct {
	client streamClient
	stream string
	maxLen int64
	logger *slog.Logger
}

// New connects to Redis and checks the connection with PING.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Sink, error) {
	if cfg.Address == "" {
		return nil, errors.New("redisstream: address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstream: ping %s: %w", cfg.Address, err)
	}
	return newSink(client, cfg.Stream, cfg.MaxLen, logger), nil
}

func newSink(client streamClient, stream string, maxLen int64, logger *slog.Logger) *Sink {
	if stream == "" {
		stream = "hellomcp:task-events"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

// Append writes e and returns the stream entry ID.
func (s *Sink) Append(ctx context.Context, e Entry) (string, error) {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: e.StreamValues(),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("redisstream: xadd %s: %w", s.stream, err)
	}
	return id, nil
}

// Consume appends every Entry received on ch until ch is closed or ctx is
// done. Failures are logged and the loop continues.
func (s *Sink) Consume(ctx context.Context, ch <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			e, ok := evt.Payload.(Entry)
			if !ok {
				continue
			}
			if _, err := s.Append(ctx, e); err != nil {
				s.logger.Warn("redis stream append failed", "stream", s.stream, "error", err)
			}
		}
	}
}

func (s *Sink) Close() error {
	return s.client.Close()
}
