// Package sweeper periodically scans for overdue loans and feeds the
// notification pipeline.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"folio/internal/loan/models"
	"folio/internal/notification"
	id "folio/pkg/domain"
	"folio/pkg/requestcontext"
)

// OverdueSource lists active loans past due at a given instant.
type OverdueSource interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error)
}

// Sweeper emits one overdue event per loan per due date: a loan notified
// once stays quiet until its due date moves (extension) and is passed
// again. The dedupe state is in-memory; a restart re-notifies, which the
// downstream messaging layer tolerates.
type Sweeper struct {
	loans    OverdueSource
	events   notification.Publisher
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	notified map[id.LoanID]time.Time
}

// New constructs a sweeper scanning at the given interval.
func New(loans OverdueSource, events notification.Publisher, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		loans:    loans,
		events:   events,
		interval: interval,
		logger:   logger,
		notified: make(map[id.LoanID]time.Time),
	}
}

// Run scans until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := requestcontext.Now(ctx)
	overdue, err := s.loans.ListOverdue(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "overdue sweep failed", "error", err)
		}
		return
	}

	for _, loan := range overdue {
		if !s.markNotified(loan.ID, loan.DueAt) {
			continue
		}
		event := notification.Event{
			Kind:       notification.KindLoanOverdue,
			LoanID:     loan.ID,
			UserID:     loan.UserID,
			CopyID:     loan.CopyID,
			DueAt:      loan.DueAt,
			OccurredAt: now,
		}
		if err := s.events.Publish(ctx, event); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "overdue event publish failed", "loan_id", loan.ID.String(), "error", err)
		}
	}
}

// markNotified records the due date the loan was last flagged for and
// reports whether an event should fire.
func (s *Sweeper) markNotified(loanID id.LoanID, dueAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.notified[loanID]; ok && last.Equal(dueAt) {
		return false
	}
	s.notified[loanID] = dueAt
	return true
}
