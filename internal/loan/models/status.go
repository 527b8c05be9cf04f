package models

import dErrors "folio/pkg/domain-errors"

// LoanStatus is the loan lifecycle enumeration. The string values double as
// the storage representation.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
)

func (s LoanStatus) String() string { return string(s) }

// ParseLoanStatus maps the storage representation back onto the enum.
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch LoanStatus(s) {
	case LoanStatusActive, LoanStatusReturned:
		return LoanStatus(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown loan status %q", s)
	}
}
