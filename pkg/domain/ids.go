// Package domain defines the typed identifiers shared across modules.
//
// Every identifier is a distinct named type over uuid.UUID so the compiler
// rejects accidental cross-assignment (a LoanID can never be passed where a
// CopyID is expected). Parse helpers enforce the invariant that IDs are
// valid, non-empty, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "folio/pkg/domain-errors"
)

type (
	// ItemID identifies a catalog item (a title, not a physical copy).
	ItemID uuid.UUID
	// CopyID identifies a physical copy of an item.
	CopyID uuid.UUID
	// LoanID identifies a loan record.
	LoanID uuid.UUID
	// UserID identifies a borrower.
	UserID uuid.UUID
)

func (id ItemID) String() string { return uuid.UUID(id).String() }
func (id CopyID) String() string { return uuid.UUID(id).String() }
func (id LoanID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string { return uuid.UUID(id).String() }

// The named types do not inherit uuid.UUID's text marshaling, so each one
// delegates explicitly. Without these, encoding/json renders an ID as a
// 16-element byte array instead of the canonical string form.
func (id ItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CopyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id LoanID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ItemID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *CopyID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *LoanID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *UserID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }

// IsZero reports whether the ID is the nil UUID.
func (id ItemID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id CopyID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id LoanID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewItemID returns a fresh random ItemID.
func NewItemID() ItemID { return ItemID(uuid.New()) }

// NewCopyID returns a fresh random CopyID.
func NewCopyID() CopyID { return CopyID(uuid.New()) }

// NewLoanID returns a fresh random LoanID.
func NewLoanID() LoanID { return LoanID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// ParseItemID parses and validates an item ID from its string form.
func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	return ItemID(u), err
}

// ParseCopyID parses and validates a copy ID from its string form.
func ParseCopyID(s string) (CopyID, error) {
	u, err := parseUUID(s, "copy id")
	return CopyID(u), err
}

// ParseLoanID parses and validates a loan ID from its string form.
func ParseLoanID(s string) (LoanID, error) {
	u, err := parseUUID(s, "loan id")
	return LoanID(u), err
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
