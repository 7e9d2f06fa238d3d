// Package memory provides a process-local durable medium used for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"sync"
)

// Medium keeps named slots in a map. Nothing survives the process.
type Medium struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMedium returns an empty medium.
func NewMedium() *Medium {
	return &Medium{slots: make(map[string]string)}
}

// Get returns the slot content when present.
func (m *Medium) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[name]
	return v, ok, nil
}

// Set replaces the slot content.
func (m *Medium) Set(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[name] = value
	return nil
}
