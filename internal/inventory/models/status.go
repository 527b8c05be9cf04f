package models

import dErrors "folio/pkg/domain-errors"

// CopyStatus is the closed lifecycle enumeration for a physical copy.
// The string values double as the storage representation; ParseCopyStatus
// is the single place the stored text is mapped back, so no call site ever
// parses status strings ad hoc.
type CopyStatus string

const (
	CopyStatusAvailable CopyStatus = "available"
	CopyStatusLoaned    CopyStatus = "loaned"
	CopyStatusReserved  CopyStatus = "reserved"
	CopyStatusLost      CopyStatus = "lost"
	CopyStatusDamaged   CopyStatus = "damaged"
)

// AllCopyStatuses lists every valid status, in lifecycle order.
var AllCopyStatuses = []CopyStatus{
	CopyStatusAvailable,
	CopyStatusLoaned,
	CopyStatusReserved,
	CopyStatusLost,
	CopyStatusDamaged,
}

// transitions is the legal state machine:
// available <-> loaned, available|loaned -> reserved (administrative),
// any non-terminal -> lost|damaged. Lost and damaged are terminal.
var transitions = map[CopyStatus][]CopyStatus{
	CopyStatusAvailable: {CopyStatusLoaned, CopyStatusReserved, CopyStatusLost, CopyStatusDamaged},
	CopyStatusLoaned:    {CopyStatusAvailable, CopyStatusReserved, CopyStatusLost, CopyStatusDamaged},
	CopyStatusReserved:  {CopyStatusAvailable, CopyStatusLost, CopyStatusDamaged},
	CopyStatusLost:      {},
	CopyStatusDamaged:   {},
}

func (s CopyStatus) String() string { return string(s) }

// Terminal reports whether the status admits no further transitions.
func (s CopyStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the state machine allows moving to target.
func (s CopyStatus) CanTransitionTo(target CopyStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseCopyStatus maps the storage representation back onto the enum,
// rejecting anything outside the closed set.
func ParseCopyStatus(s string) (CopyStatus, error) {
	for _, status := range AllCopyStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown copy status %q", s)
}
