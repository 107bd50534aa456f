package memoryregistry

import (
	"fmt"
	"sync"

	"github.com/xpanvictor/parley/pkg/io/device"
	"github.com/xpanvictor/parley/pkg/io/registry"
)

type mmrRegistry struct {
	mu  sync.RWMutex
	eps map[device.EndpointID]device.Endpoint
	max int
}

// AttachEndpoint implements registry.Registry.
func (m *mmrRegistry) AttachEndpoint(ep device.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.eps[ep.ID()]; !ok && m.max > 0 && len(m.eps) >= m.max {
		return fmt.Errorf("couldn't attach endpoint: limit of %d reached", m.max)
	}
	m.eps[ep.ID()] = ep
	return nil
}

// DetachEndpoint implements registry.Registry.
func (m *mmrRegistry) DetachEndpoint(id device.EndpointID) (device.Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.eps[id]
	if ok {
		delete(m.eps, id)
	}
	return ep, ok
}

// ListEndpoints implements registry.Registry.
func (m *mmrRegistry) ListEndpoints() []device.Endpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]device.Endpoint, 0, len(m.eps))
	for _, ep := range m.eps {
		out = append(out, ep)
	}
	return out
}

func (m *mmrRegistry) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.eps)
}

// New returns an in-memory registry; max <= 0 means unbounded.
func New(max int) registry.Registry {
	return &mmrRegistry{
		eps: make(map[device.EndpointID]device.Endpoint),
		max: max,
	}
}
