package events

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *memorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWorker_DrainsInbox(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	publisher := NewPublisher(16, logger)
	sink := &memorySink{}
	worker := NewWorker(sink, publisher.Inbox(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for range 5 {
		publisher.Emit(ctx, Event{Type: TypeUserSignedUp, UserID: "u1"})
	}

	require.Eventually(t, func() bool { return sink.len() == 5 }, time.Second, 10*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_StampsTimestampAndNeverBlocks(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	publisher := NewPublisher(1, logger)

	ctx := context.Background()
	publisher.Emit(ctx, Event{Type: TypeWalletCreated})
	// Inbox is full; this must drop instead of blocking.
	publisher.Emit(ctx, Event{Type: TypeWalletCreated})

	event := <-publisher.Inbox()
	assert.False(t, event.Timestamp.IsZero())
}
