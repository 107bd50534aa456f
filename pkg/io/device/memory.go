package device

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MemoryEndpoint buffers events in a channel for in-process consumers.
// Sends and Close share a lock so a send never races the channel close.
type MemoryEndpoint struct {
	id     uuid.UUID
	ch     chan Event
	mu     sync.Mutex
	closed bool
	last   atomic.Int64
}

func NewMemoryEndpoint(size int) *MemoryEndpoint {
	return &MemoryEndpoint{id: uuid.New(), ch: make(chan Event, size)}
}

func (m *MemoryEndpoint) ID() EndpointID       { return EndpointID(m.id) }
func (m *MemoryEndpoint) Transport() Transport { return TransportMemory }

func (m *MemoryEndpoint) IsAlive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *MemoryEndpoint) LastActive() time.Time {
	return time.Unix(0, m.last.Load())
}

func (m *MemoryEndpoint) SendEvent(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrQueueFull
	}
	select {
	case m.ch <- ev:
		m.last.Store(time.Now().UnixNano())
		return nil
	default:
		return ErrQueueFull
	}
}

// Events is closed once the endpoint is closed.
func (m *MemoryEndpoint) Events() <-chan Event {
	return m.ch
}

func (m *MemoryEndpoint) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
	return nil
}
