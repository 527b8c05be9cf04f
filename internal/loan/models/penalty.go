package models

import (
	"fmt"
	"time"
)

// Amount is a monetary amount in cents. Penalty arithmetic stays in integer
// cents so recomputation from stored loan fields is exact and auditable.
type Amount int64

// Cents returns the raw cent value.
func (a Amount) Cents() int64 { return int64(a) }

func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", a/100, a%100)
}

// ComputePenalty derives the late-return penalty from the due date, the
// return date, and the configured daily rate.
//
// Late days are counted in whole days, rounded up: any started late day
// charges a full day. On-time and early returns cost nothing. The result is
// a pure function of its inputs, never negative, and monotonic
// non-decreasing in lateness.
func ComputePenalty(dueAt, returnedAt time.Time, dailyRate Amount) Amount {
	late := returnedAt.Sub(dueAt)
	if late <= 0 {
		return 0
	}
	days := int64(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		days++
	}
	return Amount(days) * dailyRate
}
