package models

import (
	"time"

	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
)

// Loan records one copy lent to one user for a bounded period.
//
// Invariants:
//   - DueAt is strictly after LoanedAt at creation
//   - ReturnedAt and Penalty are nil while the loan is active and are set
//     exactly once, together, when the loan is returned
//   - At most one active loan references a given copy at any time; the
//     inventory module's loaned status transition enforces that side
//
// Loans are never deleted. ItemID is denormalized from the copy so history
// queries never need an inventory join.
type Loan struct {
	ID         id.LoanID  `json:"id"`
	UserID     id.UserID  `json:"user_id"`
	CopyID     id.CopyID  `json:"copy_id"`
	ItemID     id.ItemID  `json:"item_id"`
	LoanedAt   time.Time  `json:"loaned_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Penalty    *Amount    `json:"penalty,omitempty"`
	Status     LoanStatus `json:"status"`
	id.Audit
}

// NewLoan constructs an active loan.
func NewLoan(loanID id.LoanID, userID id.UserID, copyID id.CopyID, itemID id.ItemID, loanedAt, dueAt time.Time) (*Loan, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "loan must reference a user")
	}
	if !dueAt.After(loanedAt) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "due date must be after the loan date")
	}
	return &Loan{
		ID:       loanID,
		UserID:   userID,
		CopyID:   copyID,
		ItemID:   itemID,
		LoanedAt: loanedAt,
		DueAt:    dueAt,
		Status:   LoanStatusActive,
		Audit:    id.NewAudit(loanedAt),
	}, nil
}

// IsActive reports whether the loan is still open.
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// IsOverdue reports whether the loan is active and past due at the given
// instant.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && now.After(l.DueAt)
}

// CanExtend checks that the loan admits a due date extension.
func (l *Loan) CanExtend() error {
	if !l.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "loan is not active")
	}
	return nil
}

// ApplyExtension moves the due date. Call CanExtend first; both run inside
// the store's Execute scope.
func (l *Loan) ApplyExtension(newDueAt, now time.Time) {
	l.DueAt = newDueAt
	l.Touch(now)
}

// CanReturn checks that the loan is open for return.
func (l *Loan) CanReturn() error {
	if !l.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "loan is not active")
	}
	return nil
}

// ApplyReturn closes the loan: return date and penalty are written together,
// exactly once, and the status flips to returned.
func (l *Loan) ApplyReturn(returnedAt time.Time, penalty Amount, now time.Time) {
	l.ReturnedAt = &returnedAt
	l.Penalty = &penalty
	l.Status = LoanStatusReturned
	l.Touch(now)
}

// ApplyReturnReversal reopens a loan whose copy transition failed after the
// ledger write. Only the return compensation path uses it; a reversed loan
// is indistinguishable from one that was never returned.
func (l *Loan) ApplyReturnReversal(now time.Time) {
	l.ReturnedAt = nil
	l.Penalty = nil
	l.Status = LoanStatusActive
	l.Touch(now)
}
