// Package service implements the loan ledger: the loan lifecycle, penalty
// arithmetic, and the per-user loan views the restriction policy reads.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	invmodels "folio/internal/inventory/models"
	loanmetrics "folio/internal/loan/metrics"
	"folio/internal/loan/models"
	"folio/internal/notification"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/sentinel"
	"folio/pkg/requestcontext"
)

// LoanStore is the persistence collaborator for loans. Execute must hold a
// per-loan mutual-exclusion scope across validate and mutate.
type LoanStore interface {
	Create(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error)
	ListActiveByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error)
	FindActiveByCopy(ctx context.Context, copyID id.CopyID) (*models.Loan, error)
	Execute(ctx context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error)
}

// CopyGate is the slice of the inventory service the ledger drives: the
// compare-and-set loaned transition and its inverse.
type CopyGate interface {
	TryMarkLoaned(ctx context.Context, copyID id.CopyID) (*invmodels.Copy, error)
	MarkReturned(ctx context.Context, copyID id.CopyID) (*invmodels.Copy, error)
}

// RestrictionGate vetoes new loans and drops its cached verdict when a
// user's penalty history changes.
type RestrictionGate interface {
	IsRestricted(ctx context.Context, userID id.UserID) (bool, error)
	Forget(ctx context.Context, userID id.UserID)
}

// Service is the loan ledger.
type Service struct {
	loans     LoanStore
	copies    CopyGate
	policy    RestrictionGate
	events    notification.Publisher
	dailyRate models.Amount
	logger    *slog.Logger
	metrics   *loanmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *loanmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithEventPublisher(p notification.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// New constructs the ledger. dailyRate is the configured penalty charge per
// started late day, in cents.
func New(loans LoanStore, copies CopyGate, policy RestrictionGate, dailyRate models.Amount, opts ...Option) *Service {
	s := &Service{loans: loans, copies: copies, policy: policy, dailyRate: dailyRate}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyRate exposes the configured penalty rate, for recomputing stored
// penalties in audits.
func (s *Service) DailyRate() models.Amount { return s.dailyRate }

// IssueLoan lends a copy to a user until dueAt.
//
// The restriction check, the copy's compare-and-set loaned transition, and
// the ledger write form one all-or-nothing unit: when the ledger write
// fails, the copy transition is compensated before the error surfaces, so a
// caller never observes a loaned copy without an active loan.
func (s *Service) IssueLoan(ctx context.Context, userID id.UserID, copyID id.CopyID, dueAt time.Time) (*models.Loan, error) {
	now := requestcontext.Now(ctx)
	if !dueAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "due date must be in the future")
	}

	restricted, err := s.policy.IsRestricted(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate restriction policy")
	}
	if restricted {
		if s.metrics != nil {
			s.metrics.RestrictedDenials.Inc()
		}
		return nil, dErrors.Newf(dErrors.CodeRestrictedUser, "user %s is restricted from new loans", userID)
	}

	copy, err := s.copies.TryMarkLoaned(ctx, copyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) && s.metrics != nil {
			s.metrics.IssueConflicts.Inc()
		}
		return nil, err
	}

	loan, err := models.NewLoan(id.NewLoanID(), userID, copyID, copy.ItemID, now, dueAt)
	if err != nil {
		s.compensateIssue(ctx, copyID)
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.loans.Create(ctx, loan); err != nil {
		s.compensateIssue(ctx, copyID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record loan")
	}

	s.emit(ctx, notification.Event{
		Kind:       notification.KindLoanIssued,
		LoanID:     loan.ID,
		UserID:     userID,
		CopyID:     copyID,
		DueAt:      dueAt,
		OccurredAt: now,
	})
	s.log(ctx, "loan issued", "loan_id", loan.ID.String(), "user_id", userID.String(), "copy_id", copyID.String())
	if s.metrics != nil {
		s.metrics.LoansIssued.Inc()
	}
	return loan, nil
}

// ExtendLoan moves an active loan's due date forward. The new due date must
// be after both the current due date and now.
func (s *Service) ExtendLoan(ctx context.Context, loanID id.LoanID, newDueAt time.Time) (*models.Loan, error) {
	now := requestcontext.Now(ctx)

	loan, err := s.loans.Execute(ctx, loanID,
		func(l *models.Loan) error {
			if err := l.CanExtend(); err != nil {
				return dErrors.New(dErrors.CodeLoanNotActive, "loan is not active")
			}
			if !newDueAt.After(l.DueAt) || !newDueAt.After(now) {
				return dErrors.New(dErrors.CodeValidation, "new due date must be after the current due date and in the future")
			}
			return nil
		},
		func(l *models.Loan) {
			l.ApplyExtension(newDueAt, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, loanID)
	}

	s.log(ctx, "loan extended", "loan_id", loanID.String(), "due_at", newDueAt)
	if s.metrics != nil {
		s.metrics.LoansExtended.Inc()
	}
	return loan, nil
}

// ReturnLoan closes an active loan: the return date and the computed penalty
// are written exactly once under the loan's compare-and-set scope, then the
// copy goes back to available.
//
// The ledger write is the linearization point; a concurrent second return
// loses there and the copy is touched at most once. If the copy transition
// fails afterwards the ledger write is reversed, keeping the operation
// all-or-nothing.
func (s *Service) ReturnLoan(ctx context.Context, loanID id.LoanID, returnedAt time.Time) (*models.Loan, error) {
	now := requestcontext.Now(ctx)
	if returnedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "return date is required")
	}

	loan, err := s.loans.Execute(ctx, loanID,
		func(l *models.Loan) error {
			if err := l.CanReturn(); err != nil {
				return dErrors.New(dErrors.CodeLoanNotActive, "loan is not active")
			}
			if returnedAt.Before(l.LoanedAt) {
				return dErrors.New(dErrors.CodeValidation, "return date cannot precede the loan date")
			}
			return nil
		},
		func(l *models.Loan) {
			penalty := models.ComputePenalty(l.DueAt, returnedAt, s.dailyRate)
			l.ApplyReturn(returnedAt, penalty, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, loanID)
	}

	if _, err := s.copies.MarkReturned(ctx, loan.CopyID); err != nil {
		s.reverseReturn(ctx, loanID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to release copy")
	}

	s.policy.Forget(ctx, loan.UserID)

	if loan.Penalty != nil && *loan.Penalty > 0 {
		s.emit(ctx, notification.Event{
			Kind:         notification.KindPenaltyAssessed,
			LoanID:       loan.ID,
			UserID:       loan.UserID,
			CopyID:       loan.CopyID,
			DueAt:        loan.DueAt,
			OccurredAt:   now,
			PenaltyCents: loan.Penalty.Cents(),
		})
		if s.metrics != nil {
			s.metrics.PenaltiesAssessed.Inc()
			s.metrics.PenaltyAmounts.Observe(float64(loan.Penalty.Cents()))
		}
	}
	s.log(ctx, "loan returned", "loan_id", loanID.String(), "penalty", loan.Penalty.String())
	if s.metrics != nil {
		s.metrics.LoansReturned.Inc()
	}
	return loan, nil
}

// GetLoan returns a loan by ID.
func (s *Service) GetLoan(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, s.translate(err, loanID)
	}
	return loan, nil
}

// HistoryForUser returns every loan of the user, most recent first.
func (s *Service) HistoryForUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error) {
	loans, err := s.loans.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loan history")
	}
	return loans, nil
}

// ActiveLoansForUser returns the user's open loans, most recent first.
func (s *Service) ActiveLoansForUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error) {
	loans, err := s.loans.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active loans")
	}
	return loans, nil
}

// OverdueLoans returns every active loan past due at the request time.
func (s *Service) OverdueLoans(ctx context.Context) ([]*models.Loan, error) {
	loans, err := s.loans.ListOverdue(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list overdue loans")
	}
	return loans, nil
}

// compensateIssue undoes the copy's loaned transition when the ledger write
// failed. A failed compensation is logged; the sweeper surfaces the stuck
// copy as an operational signal.
func (s *Service) compensateIssue(ctx context.Context, copyID id.CopyID) {
	if _, err := s.copies.MarkReturned(ctx, copyID); err != nil {
		s.log(ctx, "issue compensation failed", "copy_id", copyID.String(), "error", err.Error())
	}
}

func (s *Service) reverseReturn(ctx context.Context, loanID id.LoanID) {
	now := requestcontext.Now(ctx)
	_, err := s.loans.Execute(ctx, loanID,
		func(l *models.Loan) error {
			if l.IsActive() {
				return dErrors.New(dErrors.CodeInvariantViolation, "loan is already active")
			}
			return nil
		},
		func(l *models.Loan) {
			l.ApplyReturnReversal(now)
		},
	)
	if err != nil {
		s.log(ctx, "return reversal failed", "loan_id", loanID.String(), "error", err.Error())
	}
}

func (s *Service) translate(err error, loanID id.LoanID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "loan %s not found", loanID)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "loan store failure")
	}
}

func (s *Service) emit(ctx context.Context, event notification.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log(ctx, "event publish failed", "kind", string(event.Kind), "error", err.Error())
	}
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, args...)
}
