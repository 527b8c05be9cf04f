package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
)

func TestNewCopy(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("starts available", func(t *testing.T) {
		copy, err := NewCopy(id.NewCopyID(), id.NewItemID(), "BC-0001", now)
		require.NoError(t, err)
		assert.Equal(t, CopyStatusAvailable, copy.Status)
		assert.True(t, copy.IsAvailable())
	})

	t.Run("rejects an empty barcode", func(t *testing.T) {
		_, err := NewCopy(id.NewCopyID(), id.NewItemID(), "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects an overlong barcode", func(t *testing.T) {
		long := make([]byte, 65)
		for i := range long {
			long[i] = 'x'
		}
		_, err := NewCopy(id.NewCopyID(), id.NewItemID(), string(long), now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects a zero item reference", func(t *testing.T) {
		_, err := NewCopy(id.NewCopyID(), id.ItemID{}, "BC-0002", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestStatusTransitions(t *testing.T) {
	legal := []struct {
		from, to CopyStatus
	}{
		{CopyStatusAvailable, CopyStatusLoaned},
		{CopyStatusAvailable, CopyStatusReserved},
		{CopyStatusAvailable, CopyStatusLost},
		{CopyStatusAvailable, CopyStatusDamaged},
		{CopyStatusLoaned, CopyStatusAvailable},
		{CopyStatusLoaned, CopyStatusReserved},
		{CopyStatusLoaned, CopyStatusLost},
		{CopyStatusLoaned, CopyStatusDamaged},
		{CopyStatusReserved, CopyStatusAvailable},
		{CopyStatusReserved, CopyStatusLost},
		{CopyStatusReserved, CopyStatusDamaged},
	}
	for _, tt := range legal {
		assert.True(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be legal", tt.from, tt.to)
	}

	t.Run("lost and damaged are terminal", func(t *testing.T) {
		for _, terminal := range []CopyStatus{CopyStatusLost, CopyStatusDamaged} {
			assert.True(t, terminal.Terminal())
			for _, target := range AllCopyStatuses {
				assert.False(t, terminal.CanTransitionTo(target), "%s -> %s must be illegal", terminal, target)
			}
		}
	})

	t.Run("reserved cannot go straight to loaned", func(t *testing.T) {
		assert.False(t, CopyStatusReserved.CanTransitionTo(CopyStatusLoaned))
	})
}

func TestCanTransition(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	copy, err := NewCopy(id.NewCopyID(), id.NewItemID(), "BC-0003", now)
	require.NoError(t, err)

	t.Run("same status is rejected, never a silent success", func(t *testing.T) {
		err := copy.CanTransition(CopyStatusAvailable)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("apply moves the status and touches the audit", func(t *testing.T) {
		require.NoError(t, copy.CanTransition(CopyStatusLoaned))
		later := now.Add(time.Hour)
		copy.ApplyTransition(CopyStatusLoaned, later)
		assert.Equal(t, CopyStatusLoaned, copy.Status)
		assert.True(t, copy.UpdatedAt.Equal(later))
	})
}

func TestParseCopyStatus(t *testing.T) {
	for _, status := range AllCopyStatuses {
		parsed, err := ParseCopyStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseCopyStatus("checked-out")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
