// Package relay maintains the process-wide room registry that maps numeric
// room ids to their relays.
package relay

import "sync"

// Registry maps room ids to relays, creating each relay the first time its
// id is referenced. Rooms are never removed while the process runs, so the
// map only grows. The registry mutex guards map access only and is never
// held across channel operations or socket I/O.
type Registry struct {
	capacity int

	mu     sync.Mutex
	rooms  map[uint64]*Relay
	closed bool
}

// NewRegistry creates an empty registry. The capacity is forwarded to every
// relay the registry creates.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		rooms:    make(map[uint64]*Relay),
	}
}

// GetOrCreate returns the relay for room, creating and registering it if
// the id has never been seen. Concurrent first-time callers for the same id
// observe the same relay instance.
func (g *Registry) GetOrCreate(room uint64) *Relay {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[room]; ok {
		return r
	}

	r := NewRelay(g.capacity)
	if g.closed {
		// Rooms created during shutdown are born closed so that late
		// subscribers are turned away instead of stranded.
		r.Close()
	}
	g.rooms[room] = r
	return r
}

// Len reports how many rooms have been created so far.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Subscribers reports the total subscriber count across all rooms.
func (g *Registry) Subscribers() int {
	total := 0
	for _, r := range g.snapshot() {
		total += r.Subscribers()
	}
	return total
}

// Shutdown closes every relay, invalidating all live subscriptions. It is
// intended for process shutdown; relays requested afterwards are created
// already closed.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	for _, r := range g.snapshot() {
		r.Close()
	}
}

// snapshot copies the current relay set so callers can operate on relays
// without holding the registry mutex.
func (g *Registry) snapshot() []*Relay {
	g.mu.Lock()
	defer g.mu.Unlock()

	rooms := make([]*Relay, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}
