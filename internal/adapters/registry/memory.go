package registry

import (
	"fmt"
	"sync"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// Entry is the externally visible snapshot of one registered sensor.
type Entry struct {
	Path  string            `json:"path"`
	Kind  domain.SensorKind `json:"kind"`
	Unit  string            `json:"unit,omitempty"`
	Value *domain.Reading   `json:"value,omitempty"`
}

// Memory is the in-process registry: the authoritative latest-value store the
// HTTP surface reads from. Registration order is preserved so listings come
// out in sweep order (crate first, then slots ascending).
type Memory struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

func (m *Memory) RegisterSensor(path string, kind domain.SensorKind, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[path]; ok {
		return fmt.Errorf("sensor %s already registered", path)
	}
	m.entries[path] = &Entry{Path: path, Kind: kind, Unit: unit}
	m.order = append(m.order, path)
	return nil
}

func (m *Memory) UnregisterSensor(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[path]; !ok {
		return fmt.Errorf("sensor %s not registered", path)
	}
	delete(m.entries, path)
	for i, p := range m.order {
		if p == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) UpdateValue(path string, reading domain.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return fmt.Errorf("sensor %s not registered", path)
	}
	e.Value = &reading
	return nil
}

// Snapshot returns all registered sensors in registration order.
func (m *Memory) Snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, *m.entries[p])
	}
	return out
}

// Lookup returns the entry for one path.
func (m *Memory) Lookup(path string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

var _ ports.Registry = (*Memory)(nil)
