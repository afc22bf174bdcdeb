package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

type fakeConn struct {
	id      string
	closed  atomic.Bool
	sendErr error

	mu     sync.Mutex
	frames [][]byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(frame []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Closed() bool { return f.closed.Load() }

func (f *fakeConn) Close() { f.closed.Store(true) }

func (f *fakeConn) updates(t testing.TB) []domain.OrderUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.OrderUpdate, 0, len(f.frames))
	for _, frame := range f.frames {
		var msg domain.SocketMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if msg.Type != domain.MessageOrderUpdate {
			continue
		}
		var update domain.OrderUpdate
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		out = append(out, update)
	}
	return out
}

type fakeMetrics struct {
	mu          sync.Mutex
	published   map[string]int
	dropped     map[string]int
	delivered   int
	pruned      int
	failed      int
	connections int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{published: map[string]int{}, dropped: map[string]int{}}
}

func (m *fakeMetrics) Published(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[event]++
}

func (m *fakeMetrics) Delivered(delivered, pruned, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered += delivered
	m.pruned += pruned
	m.failed += failed
}

func (m *fakeMetrics) Dropped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[reason]++
}

func (m *fakeMetrics) SetConnections(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections = n
}

func (m *fakeMetrics) droppedFor(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped[reason]
}
