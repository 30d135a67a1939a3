package events

import (
	"context"
	"log/slog"
	"time"
)

// Publisher queues events for the worker. The inbox is bounded; when it is
// full the event is dropped and counted in logs rather than stalling a
// request.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues the event, stamping the timestamp if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "event dropped, inbox full",
			"type", event.Type,
			"user_id", event.UserID,
		)
	}
}

// Inbox exposes the channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Sink is where drained events land.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Worker consumes events from the publisher's inbox and persists them. A sink
// failure is logged and the worker keeps draining; events are diagnostics,
// not ledger entries.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "event append failed",
					"type", event.Type,
					"error", err,
				)
			}
		}
	}
}
