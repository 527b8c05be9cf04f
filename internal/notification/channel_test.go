package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

func event(kind Kind) Event {
	return Event{
		Kind:       kind,
		LoanID:     id.NewLoanID(),
		UserID:     id.NewUserID(),
		CopyID:     id.NewCopyID(),
		OccurredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestChannelPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueues without blocking", func(t *testing.T) {
		p := NewChannelPublisher(2)
		require.NoError(t, p.Publish(ctx, event(KindLoanIssued)))
		require.NoError(t, p.Publish(ctx, event(KindLoanOverdue)))

		first := <-p.Inbox()
		assert.Equal(t, KindLoanIssued, first.Kind)
	})

	t.Run("a full inbox drops the event with ErrUnavailable", func(t *testing.T) {
		p := NewChannelPublisher(1)
		require.NoError(t, p.Publish(ctx, event(KindLoanIssued)))

		err := p.Publish(ctx, event(KindLoanIssued))
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

func TestWorkerDrainsIntoSink(t *testing.T) {
	p := NewChannelPublisher(8)
	sink := NewMemorySink()
	worker := NewWorker(sink, p.Inbox(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	require.NoError(t, p.Publish(ctx, event(KindLoanIssued)))
	require.NoError(t, p.Publish(ctx, event(KindPenaltyAssessed)))

	require.Eventually(t, func() bool {
		return len(sink.Events()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.Len(t, sink.ByKind(KindLoanIssued), 1)
	assert.Len(t, sink.ByKind(KindPenaltyAssessed), 1)
}

func TestMemorySinkByKind(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, event(KindLoanOverdue)))
	require.NoError(t, sink.Publish(ctx, event(KindLoanIssued)))
	require.NoError(t, sink.Publish(ctx, event(KindLoanOverdue)))

	assert.Len(t, sink.Events(), 3)
	assert.Len(t, sink.ByKind(KindLoanOverdue), 2)
	assert.Empty(t, sink.ByKind(KindPenaltyAssessed))
}
