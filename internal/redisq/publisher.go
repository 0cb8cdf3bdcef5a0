// Package redisq offers a durable alternative to the dry-run JSONL sink:
// dispatched opportunities are pushed onto a Redis stream so an external
// order-submission process can consume them independently of this
// process's lifetime.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"triarb/internal/evaluator"
)

// Publisher implements dispatch.Sender by XADDing each opportunity onto a
// Redis stream as a single JSON-encoded field.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

// NewPublisher builds a Publisher against addr, targeting stream.
func NewPublisher(addr, stream string) *Publisher {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Publisher{rdb: rdb, stream: stream}
}

// Ping verifies connectivity, for use at startup before the dispatcher
// starts draining into this sink.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Send implements dispatch.Sender.
func (p *Publisher) Send(op *evaluator.Opportunity) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("redisq: marshal opportunity: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"opportunity": payload},
		MaxLen: 100_000,
		Approx: true,
	}).Err()
}

// Close releases the underlying Redis client connection pool.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
