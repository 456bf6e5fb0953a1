package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

type mockGateway struct {
	mu sync.Mutex

	crate    []domain.SensorInfo
	crateErr error

	carrier    map[int][]domain.SensorInfo
	carrierErr map[int]error

	occupied    []int
	occupiedErr error

	readings map[string]float64 // path -> value
	readErr  map[string]error

	crateCalls    int
	carrierCalls  map[int]int
	occupiedCalls int
	readCalls     int

	inflight    int32
	maxInflight int32
	readDelay   time.Duration
	blockReads  chan struct{} // if non-nil, ReadSensor waits for close or ctx
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		carrier:      make(map[int][]domain.SensorInfo),
		carrierErr:   make(map[int]error),
		readings:     make(map[string]float64),
		readErr:      make(map[string]error),
		carrierCalls: make(map[int]int),
	}
}

func (g *mockGateway) CrateSensors(context.Context) ([]domain.SensorInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.crateCalls++
	if g.crateErr != nil {
		return nil, g.crateErr
	}
	return g.crate, nil
}

func (g *mockGateway) CarrierSensors(_ context.Context, slot int) ([]domain.SensorInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.carrierCalls[slot]++
	if err := g.carrierErr[slot]; err != nil {
		return nil, err
	}
	return g.carrier[slot], nil
}

func (g *mockGateway) OccupiedSlots(context.Context) ([]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.occupiedCalls++
	if g.occupiedErr != nil {
		return nil, g.occupiedErr
	}
	out := make([]int, len(g.occupied))
	copy(out, g.occupied)
	return out, nil
}

func (g *mockGateway) ReadSensor(ctx context.Context, scope domain.Scope, name string) (domain.Reading, error) {
	cur := atomic.AddInt32(&g.inflight, 1)
	for {
		max := atomic.LoadInt32(&g.maxInflight)
		if cur <= max || atomic.CompareAndSwapInt32(&g.maxInflight, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&g.inflight, -1)

	g.mu.Lock()
	g.readCalls++
	block := g.blockReads
	delay := g.readDelay
	path := domain.SensorPath(scope, name)
	err := g.readErr[path]
	val := g.readings[path]
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.Reading{}, ctx.Err()
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.Reading{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.Reading{}, err
	}
	return domain.Reading{Value: val}, nil
}

func (g *mockGateway) setOccupied(slots ...int) {
	g.mu.Lock()
	g.occupied = slots
	g.mu.Unlock()
}

func (g *mockGateway) reads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.readCalls
}

type mockRegistry struct {
	mu           sync.Mutex
	ops          []string // "register <path>" / "unregister <path>" / "update <path>"
	registered   map[string]int
	unregistered map[string]int
	values       map[string]domain.Reading
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{
		registered:   make(map[string]int),
		unregistered: make(map[string]int),
		values:       make(map[string]domain.Reading),
	}
}

func (r *mockRegistry) RegisterSensor(path string, _ domain.SensorKind, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "register "+path)
	r.registered[path]++
	return nil
}

func (r *mockRegistry) UnregisterSensor(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "unregister "+path)
	r.unregistered[path]++
	delete(r.values, path)
	return nil
}

func (r *mockRegistry) UpdateValue(path string, reading domain.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "update "+path)
	r.values[path] = reading
	return nil
}

func (r *mockRegistry) value(path string) (domain.Reading, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[path]
	return v, ok
}

func (r *mockRegistry) registerCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered[path]
}

func (r *mockRegistry) opList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ops))
	copy(out, r.ops)
	return out
}

type mockObs struct {
	mu     sync.Mutex
	errors []error
}

func (m *mockObs) LogInfo(string, ...ports.Field) {}

func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
}

func (m *mockObs) LogCritical(string, error, ...ports.Field) {}
func (m *mockObs) IncCounter(string, float64)                {}
func (m *mockObs) SetGauge(string, float64)                  {}
func (m *mockObs) ObserveLatency(string, float64)            {}

var (
	_ ports.Gateway       = (*mockGateway)(nil)
	_ ports.Registry      = (*mockRegistry)(nil)
	_ ports.Observability = (*mockObs)(nil)
)
