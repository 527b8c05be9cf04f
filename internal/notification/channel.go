package notification

import (
	"context"
	"fmt"
	"log/slog"

	"folio/pkg/platform/sentinel"
)

// ChannelPublisher decouples event producers from the delivery sink: Publish
// enqueues without blocking and a Worker drains the inbox into the real
// publisher. A full inbox drops the event rather than stalling a loan
// operation.
type ChannelPublisher struct {
	inbox chan Event
}

// NewChannelPublisher creates a publisher with the given inbox capacity.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{inbox: make(chan Event, buffer)}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		return fmt.Errorf("notification inbox full: %w", sentinel.ErrUnavailable)
	}
}

// Inbox exposes the receive side for a Worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker drains an event inbox into a delivery sink. Sink failures are
// logged and skipped; notifications never block or fail loan operations.
type Worker struct {
	sink   Publisher
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "notification delivery failed",
					"kind", string(event.Kind), "loan_id", event.LoanID.String(), "error", err)
			}
		}
	}
}
