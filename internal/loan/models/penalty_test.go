package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputePenalty(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rate := Amount(100)

	tests := []struct {
		name       string
		returnedAt time.Time
		want       Amount
	}{
		{"early return costs nothing", due.Add(-48 * time.Hour), 0},
		{"on-time return costs nothing", due, 0},
		{"one second late charges a full day", due.Add(time.Second), 100},
		{"exactly one day late charges one day", due.Add(24 * time.Hour), 100},
		{"a started second day charges two days", due.Add(24*time.Hour + time.Minute), 200},
		{"five days late charges five days", due.Add(5 * 24 * time.Hour), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePenalty(due, tt.returnedAt, rate))
		})
	}
}

func TestComputePenaltyMonotonic(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rate := Amount(150)

	prev := Amount(0)
	for hours := 0; hours <= 24*10; hours += 7 {
		got := ComputePenalty(due, due.Add(time.Duration(hours)*time.Hour), rate)
		assert.GreaterOrEqual(t, got, prev, "penalty must never decrease with lateness")
		prev = got
	}
}

func TestComputePenaltyZeroRate(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Amount(0), ComputePenalty(due, due.Add(72*time.Hour), 0))
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "5.00", Amount(500).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "12.34", Amount(1234).String())
}
