// Package watch provides the in-process subscription hub behind the
// attendance stream endpoint. Each successful transition publishes a
// snapshot; subscribers register a channel per watched user and must
// cancel on teardown. There is no global listener registry: a
// subscription is a value whose lifetime the caller owns.
package watch

import (
	"sync"
	"time"

	"github.com/iliyamo/staff-attendance/internal/attendance"
	"github.com/iliyamo/staff-attendance/internal/model"
)

// Snapshot is the payload delivered to subscribers after a transition.
// It mirrors what GET /v1/attendance/today returns so stream clients
// can render without a follow-up read.
type Snapshot struct {
	UserID           uint64                  `json:"user_id"`
	Date             string                  `json:"date"`
	State            attendance.State        `json:"state"`
	Record           *model.AttendanceRecord `json:"record"`
	EffectiveMinutes int                     `json:"effective_minutes"`
	At               time.Time               `json:"at"`
}

// Hub fans transition snapshots out to per-user subscribers. Publish
// never blocks: a subscriber that is not draining its channel misses
// the event and catches up on the next one, since every snapshot
// carries the full current state.
type Hub struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]map[uint64]chan Snapshot // userID -> subID -> channel
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[uint64]chan Snapshot)}
}

// Subscribe registers interest in one user's snapshots. The returned
// cancel func must be called on teardown; it closes the channel.
func (h *Hub) Subscribe(userID uint64) (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	ch := make(chan Snapshot, 8)
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]chan Snapshot)
	}
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if m, ok := h.subs[userID]; ok {
			if c, ok := m[id]; ok {
				delete(m, id)
				close(c)
			}
			if len(m) == 0 {
				delete(h.subs, userID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of its user.
func (h *Hub) Publish(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[s.UserID] {
		select {
		case ch <- s:
		default: // slow subscriber, drop
		}
	}
}

// SubscriberCount reports how many channels watch the given user.
func (h *Hub) SubscriberCount(userID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
