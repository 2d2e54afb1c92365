package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

// DefaultPollInterval is the reconciliation period when none is configured.
const DefaultPollInterval = 3 * time.Second

const batchSize = 100

// MessageLister reads the messages of a chat strictly after a cursor.
type MessageLister interface {
	ListAfter(ctx context.Context, chatID string, cursor pagination.Cursor, limit int) ([]db.Message, error)
}

// Signaler delivers new-message wake-ups for a chat.
type Signaler interface {
	SubscribeChat(ctx context.Context, chatID string) (*redis.PubSub, error)
}

// Event is one delivered message plus the token to resume right after it.
type Event struct {
	Message db.Message
	Cursor  string
}

// Stream turns chat inserts into ordered event streams.
//
// Every event comes from a cursor query ordered by (created_at, id). Pub/sub
// messages only trigger an early query, and a ticker covers lost signals, so
// an event is never delivered twice nor skipped.
type Stream struct {
	messages MessageLister
	bus      Signaler
	interval time.Duration
	log      *slog.Logger
}

// NewStream wires a stream. bus may be nil, in which case only polling runs.
func NewStream(messages MessageLister, bus Signaler, interval time.Duration, log *slog.Logger) *Stream {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Stream{messages: messages, bus: bus, interval: interval, log: log}
}

// Subscribe streams messages of chatID inserted after from until ctx ends.
// The returned channel is closed when the stream stops.
//
// Behavior:
//   - A zero cursor replays the whole chat history first.
//   - The wake-up subscription is opened before the first query, so nothing
//     inserted in between is missed.
//   - A failed subscription is logged and the stream keeps polling.
//   - Query errors are logged; the next tick retries from the same cursor.
//
// Example:
//
//	for ev := range stream.Subscribe(ctx, chatID, pagination.Cursor{}) {
//		send(ev.Message, ev.Cursor)
//	}
func (s *Stream) Subscribe(ctx context.Context, chatID string, from pagination.Cursor) <-chan Event {
	out := make(chan Event)
	go s.run(ctx, chatID, from, out)
	return out
}

func (s *Stream) run(ctx context.Context, chatID string, cursor pagination.Cursor, out chan<- Event) {
	defer close(out)
	log := s.log.With("chat_id", chatID)

	var wake <-chan *redis.Message
	if s.bus != nil {
		ps, err := s.bus.SubscribeChat(ctx, chatID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("realtime subscribe failed, falling back to polling", "err", err)
		} else {
			defer ps.Close()
			wake = ps.Channel()
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		next, err := s.drain(ctx, chatID, cursor, out)
		cursor = next
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error("realtime catch-up failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case _, ok := <-wake:
			if !ok {
				log.Warn("realtime signal channel closed, polling only")
				wake = nil
			}
		case <-ticker.C:
		}
	}
}

// drain emits every message after cursor and returns the advanced cursor.
func (s *Stream) drain(ctx context.Context, chatID string, cursor pagination.Cursor, out chan<- Event) (pagination.Cursor, error) {
	for {
		msgs, err := s.messages.ListAfter(ctx, chatID, cursor, batchSize)
		if err != nil {
			return cursor, err
		}
		for _, m := range msgs {
			next := pagination.At(m.ID, m.CreatedAt)
			select {
			case out <- Event{Message: m, Cursor: pagination.MustEncode(next)}:
			case <-ctx.Done():
				return cursor, ctx.Err()
			}
			cursor = next
		}
		if len(msgs) < batchSize {
			return cursor, nil
		}
	}
}
