// Package service implements the restriction policy gating new loans.
//
// The policy is a pure read over the loan ledger's data for one user plus
// the request clock: it stores nothing and has no side effects beyond an
// optional decision cache.
package service

import (
	"context"
	"log/slog"
	"time"

	"folio/internal/loan/models"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

// LoanReader is the slice of the loan ledger the policy reads.
type LoanReader interface {
	ListActiveByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error)
}

// DecisionCache holds recent verdicts. Implementations must treat a miss
// and an unavailable cache identically: the policy falls through to the
// ledger either way.
type DecisionCache interface {
	Get(ctx context.Context, userID id.UserID) (restricted bool, ok bool)
	Set(ctx context.Context, userID id.UserID, restricted bool)
	Forget(ctx context.Context, userID id.UserID)
}

// Config carries the policy constants.
type Config struct {
	// GraceDays is how far past due an active loan may run before the user
	// is restricted.
	GraceDays int
	// PenaltyThresholdCents restricts a user whose summed penalties on
	// returned loans exceed this amount.
	PenaltyThresholdCents models.Amount
}

// Service evaluates the restriction policy.
type Service struct {
	loans  LoanReader
	cfg    Config
	cache  DecisionCache
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache DecisionCache) Option {
	return func(s *Service) { s.cache = cache }
}

// New constructs the policy service.
func New(loans LoanReader, cfg Config, opts ...Option) *Service {
	s := &Service{loans: loans, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsRestricted reports whether the user may not receive a new loan: true if
// any active loan is overdue beyond the grace period, or if unpaid penalties
// on returned loans have reached the configured threshold.
func (s *Service) IsRestricted(ctx context.Context, userID id.UserID) (bool, error) {
	if s.cache != nil {
		if restricted, ok := s.cache.Get(ctx, userID); ok {
			return restricted, nil
		}
	}

	restricted, err := s.evaluate(ctx, userID)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, restricted)
	}
	return restricted, nil
}

// Forget drops any cached verdict for the user. The ledger calls this when
// the user's penalty history changes.
func (s *Service) Forget(ctx context.Context, userID id.UserID) {
	if s.cache != nil {
		s.cache.Forget(ctx, userID)
	}
}

func (s *Service) evaluate(ctx context.Context, userID id.UserID) (bool, error) {
	now := requestcontext.Now(ctx)

	active, err := s.loans.ListActiveByUser(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active loans")
	}
	grace := time.Duration(s.cfg.GraceDays) * 24 * time.Hour
	for _, loan := range active {
		if now.After(loan.DueAt.Add(grace)) {
			s.logVerdict(ctx, userID, "overdue beyond grace")
			return true, nil
		}
	}

	history, err := s.loans.ListByUser(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loan history")
	}
	var owed models.Amount
	for _, loan := range history {
		if loan.Status == models.LoanStatusReturned && loan.Penalty != nil {
			owed += *loan.Penalty
		}
	}
	if owed > s.cfg.PenaltyThresholdCents {
		s.logVerdict(ctx, userID, "penalty threshold reached")
		return true, nil
	}
	return false, nil
}

func (s *Service) logVerdict(ctx context.Context, userID id.UserID, reason string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "user restricted", "user_id", userID.String(), "reason", reason)
	}
}
