// Package notification carries the events the loan ledger emits for the
// outbound messaging system. Delivery is fire-and-forget: a failed publish
// is logged and never rolls back the loan operation that produced it.
package notification

import (
	"context"
	"time"

	id "folio/pkg/domain"
)

// Kind classifies an outbound event.
type Kind string

const (
	// KindLoanIssued fires when a loan is successfully created.
	KindLoanIssued Kind = "loan.issued"
	// KindLoanOverdue fires when the sweeper first sees an active loan past
	// its due date (and again if the due date moves and is passed again).
	KindLoanOverdue Kind = "loan.overdue"
	// KindPenaltyAssessed fires when a late return is charged a penalty.
	KindPenaltyAssessed Kind = "loan.penalty_assessed"
)

// Event is one notification. Kept transport-agnostic so sinks can fan out
// to kafka, memory, or anything else.
type Event struct {
	Kind         Kind      `json:"kind"`
	LoanID       id.LoanID `json:"loan_id"`
	UserID       id.UserID `json:"user_id"`
	CopyID       id.CopyID `json:"copy_id"`
	DueAt        time.Time `json:"due_at"`
	OccurredAt   time.Time `json:"occurred_at"`
	PenaltyCents int64     `json:"penalty_cents,omitempty"`
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
