package websocket

import "errors"

var (
	// ErrConnectionClosed is returned by Send once the connection has closed.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned by Send when the peer is not draining frames.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Connection is a registry entry: one live dashboard channel.
type Connection interface {
	// ID is the transport-assigned connection identifier.
	ID() string
	// Send queues a frame without blocking.
	Send(frame []byte) error
	// Closed reports whether the underlying channel is no longer open.
	Closed() bool
	// Close shuts the channel down. Safe to call more than once.
	Close()
}

// Registry maps connection ids to live connections and iterates them in
// insertion order. It is not safe for concurrent use; the Hub owns it and
// touches it only from its dispatch goroutine.
type Registry struct {
	entries map[string]Connection
	order   []string
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Connection)}
}

// Register adds the connection, or replaces the entry with the same id in
// place.
func (r *Registry) Register(conn Connection) {
	id := conn.ID()
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = conn
}

// Unregister removes the entry. It reports whether an entry was present.
func (r *Registry) Unregister(id string) bool {
	if _, exists := r.entries[id]; !exists {
		return false
	}
	delete(r.entries, id)
	for i, entry := range r.order {
		if entry == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (Connection, bool) {
	conn, ok := r.entries[id]
	return conn, ok
}

// ForEach visits every entry in insertion order. visit must not mutate the
// registry; take a Snapshot first when mutation is needed.
func (r *Registry) ForEach(visit func(Connection)) {
	for _, id := range r.order {
		visit(r.entries[id])
	}
}

// Snapshot copies the current entries in insertion order.
func (r *Registry) Snapshot() []Connection {
	out := make([]Connection, 0, len(r.order))
	r.ForEach(func(c Connection) {
		out = append(out, c)
	})
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
