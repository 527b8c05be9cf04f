package models

import (
	"time"

	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
)

// Item is a catalog title. Physical stock is tracked per copy in the
// inventory module; the catalog only answers "does this item exist".
type Item struct {
	ID     id.ItemID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author,omitempty"`
	id.Audit
}

// NewItem constructs a catalog item.
func NewItem(itemID id.ItemID, title, author string, now time.Time) (*Item, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item title cannot be empty")
	}
	if len(title) > 256 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item title must be 256 characters or less")
	}
	return &Item{
		ID:     itemID,
		Title:  title,
		Author: author,
		Audit:  id.NewAudit(now),
	}, nil
}
