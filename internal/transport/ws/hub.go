package ws

import (
	"sync"

	"github.com/polimarket/market-service/internal/metrics"
)

// Conn is one live member of a room.
type Conn interface {
	// Send queues payload for delivery and must not block.
	Send(payload []byte) error
	Close() error
}

// Hub is the room registry: chat id -> live connections. Rooms are created on
// first join and removed as soon as their last member leaves.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[int64]map[Conn]struct{})}
}

// Join is idempotent.
func (h *Hub) Join(roomID int64, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[roomID] = rs
		metrics.ActiveRooms.Inc()
	}
	rs[c] = struct{}{}
}

// Leave reports whether c was a member. Leaving twice is a no-op.
func (h *Hub) Leave(roomID int64, c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.leaveLocked(roomID, c)
}

func (h *Hub) leaveLocked(roomID int64, c Conn) bool {
	rs, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := rs[c]; !ok {
		return false
	}
	delete(rs, c)
	if len(rs) == 0 {
		delete(h.rooms, roomID)
		metrics.ActiveRooms.Dec()
	}

	return true
}

// Broadcast delivers payload to a snapshot of the room and returns the number
// of successful sends. Members whose send fails are removed and closed.
func (h *Hub) Broadcast(roomID int64, payload []byte) int {
	h.mu.RLock()
	members := make([]Conn, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	var (
		delivered int
		failed    []Conn
	)
	for _, c := range members {
		if err := c.Send(payload); err != nil {
			failed = append(failed, c)
			continue
		}
		delivered++
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, c := range failed {
			h.leaveLocked(roomID, c)
		}
		h.mu.Unlock()

		for _, c := range failed {
			metrics.BroadcastFailures.Inc()
			_ = c.Close()
		}
	}

	return delivered
}

// Size returns the number of live connections in a room.
func (h *Hub) Size(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}

// Rooms returns the number of rooms with at least one live connection.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms)
}

// CloseAll closes every live connection. Sessions observe the closed
// transport and leave on their own.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]Conn, 0)
	for _, rs := range h.rooms {
		for c := range rs {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		_ = c.Close()
	}
}
