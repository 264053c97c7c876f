package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const queueSize = 1024

// RedisSink appends events to a Redis stream with XADD. A single writer
// goroutine drains the queue, so the stream keeps publish order.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// Dial parses a redis:// URL and checks the server is reachable.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisSink(client *redis.Client, stream string, maxLen int64) *RedisSink {
	s := &RedisSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Publish enqueues e. When the queue is full the event is dropped.
func (s *RedisSink) Publish(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- e:
	default:
		log.Warn().Str("type", e.Type).Str("code", e.Room).Msg("event queue full, dropping")
	}
}

// Close flushes queued events and closes the client.
func (s *RedisSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.client.Close()
}

func (s *RedisSink) run() {
	defer close(s.done)
	for e := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.write(ctx, e); err != nil {
			log.Error().Err(err).Str("type", e.Type).Str("code", e.Room).Msg("event stream write failed")
		}
		cancel()
	}
}

func (s *RedisSink) write(ctx context.Context, e Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":   e.ID,
			"type": e.Type,
			"room": e.Room,
			"at":   e.At.Format(time.RFC3339Nano),
			"data": string(data),
		},
	}).Err()
}
