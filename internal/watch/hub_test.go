package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/staff-attendance/internal/attendance"
)

func TestSubscribeReceivesOwnUserOnly(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	defer cancel()

	h.Publish(Snapshot{UserID: 2, State: attendance.StateWorking})
	h.Publish(Snapshot{UserID: 1, State: attendance.StateOnBreak})

	select {
	case s := <-ch:
		assert.Equal(t, uint64(1), s.UserID)
		assert.Equal(t, attendance.StateOnBreak, s.State)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot for user 1")
	}
	select {
	case s := <-ch:
		t.Fatalf("unexpected extra snapshot: %+v", s)
	default:
	}
}

func TestCancelClosesChannelAndDeregisters(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	require.Equal(t, 1, h.SubscriberCount(1))

	cancel()
	_, open := <-ch
	assert.False(t, open, "channel must be closed on cancel")
	assert.Equal(t, 0, h.SubscriberCount(1))

	// Cancel is idempotent.
	cancel()
	// Publishing after cancel must not panic.
	h.Publish(Snapshot{UserID: 1})
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// More events than the channel buffers; extras are dropped.
		for i := 0; i < 100; i++ {
			h.Publish(Snapshot{UserID: 1})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a subscriber that is not draining")
	}
}
