package models

import (
	"time"

	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
)

// Copy is a physical, individually trackable instance of a catalog item.
//
// Invariants:
//   - Barcode is non-empty and unique across all copies (store-enforced)
//   - Status is one of the closed CopyStatus set
//   - Status transitions follow the table in CanTransitionTo
//   - Status is loaned if and only if exactly one active loan references
//     this copy; the loan module enforces that side through the inventory
//     service's check-and-set transitions
//   - Lost and Damaged are terminal: leaving them takes an administrative
//     reset that is not modeled here
//
// Copies are never physically deleted.
type Copy struct {
	ID      id.CopyID  `json:"id"`
	ItemID  id.ItemID  `json:"item_id"`
	Barcode string     `json:"barcode"`
	Status  CopyStatus `json:"status"`
	id.Audit
}

// NewCopy constructs a registered copy in the available state.
func NewCopy(copyID id.CopyID, itemID id.ItemID, barcode string, now time.Time) (*Copy, error) {
	if barcode == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "barcode cannot be empty")
	}
	if len(barcode) > 64 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "barcode must be 64 characters or less")
	}
	if itemID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "copy must reference an item")
	}
	return &Copy{
		ID:      copyID,
		ItemID:  itemID,
		Barcode: barcode,
		Status:  CopyStatusAvailable,
		Audit:   id.NewAudit(now),
	}, nil
}

// CanTransition checks whether the copy may move to the target status.
// Returns an invariant violation error naming both states otherwise.
func (c *Copy) CanTransition(target CopyStatus) error {
	if c.Status == target {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "copy is already %s", target)
	}
	if !c.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "copy cannot move from %s to %s", c.Status, target)
	}
	return nil
}

// ApplyTransition moves the copy to the target status. Call CanTransition
// first; stores run both inside their Execute scope so the check and the
// mutation happen under one lock.
func (c *Copy) ApplyTransition(target CopyStatus, now time.Time) {
	c.Status = target
	c.Touch(now)
}

// IsAvailable reports whether the copy can be handed out.
func (c *Copy) IsAvailable() bool {
	return c.Status == CopyStatusAvailable
}
