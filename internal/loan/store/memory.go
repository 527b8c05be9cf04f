package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"folio/internal/loan/models"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

// InMemory keeps loans in a mutex-guarded map. Execute holds the store lock
// across validate and mutate, so a loan's status change is a compare-and-set
// and two concurrent returns of one loan serialize here.
type InMemory struct {
	mu    sync.RWMutex
	loans map[id.LoanID]*models.Loan
}

// NewInMemory constructs an empty in-memory loan store.
func NewInMemory() *InMemory {
	return &InMemory{loans: make(map[id.LoanID]*models.Loan)}
}

func (s *InMemory) Create(ctx context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loans[loan.ID] = clone(loan)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, sentinel.ErrNotFound)
	}
	return clone(loan), nil
}

// ListByUser returns all loans of a user, most recent first.
func (s *InMemory) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return l.UserID == userID }), nil
}

// ListActiveByUser returns the user's open loans, most recent first.
func (s *InMemory) ListActiveByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return l.UserID == userID && l.IsActive() }), nil
}

// ListOverdue returns every active loan past due as of the given instant,
// most recent first.
func (s *InMemory) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return l.IsOverdue(asOf) }), nil
}

// FindActiveByCopy returns the single active loan for a copy, or
// sentinel.ErrNotFound when the copy is not out.
func (s *InMemory) FindActiveByCopy(ctx context.Context, copyID id.CopyID) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.loans {
		if l.CopyID == copyID && l.IsActive() {
			return clone(l), nil
		}
	}
	return nil, fmt.Errorf("active loan for copy %s: %w", copyID, sentinel.ErrNotFound)
}

// Execute runs validate and mutate on the loan under the store lock.
// Validate errors are returned unchanged and nothing is written.
func (s *InMemory) Execute(
	ctx context.Context,
	loanID id.LoanID,
	validate func(*models.Loan) error,
	mutate func(*models.Loan),
) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, sentinel.ErrNotFound)
	}
	if err := validate(loan); err != nil {
		return nil, err
	}
	mutate(loan)
	return clone(loan), nil
}

func (s *InMemory) collect(match func(*models.Loan) bool) []*models.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Loan
	for _, l := range s.loans {
		if match(l) {
			out = append(out, clone(l))
		}
	}
	sortMostRecentFirst(out)
	return out
}

func clone(l *models.Loan) *models.Loan {
	dup := *l
	if l.ReturnedAt != nil {
		t := *l.ReturnedAt
		dup.ReturnedAt = &t
	}
	if l.Penalty != nil {
		p := *l.Penalty
		dup.Penalty = &p
	}
	return &dup
}

func sortMostRecentFirst(loans []*models.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].LoanedAt.Equal(loans[j].LoanedAt) {
			return loans[i].LoanedAt.After(loans[j].LoanedAt)
		}
		return loans[i].ID.String() > loans[j].ID.String()
	})
}
