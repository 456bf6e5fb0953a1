package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// State is the monitor lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SweepResult is the transient tally of one full sweep. It is surfaced as
// cycle health and then discarded; per-sensor outcomes are not persisted.
type SweepResult struct {
	Started   time.Time
	Duration  time.Duration
	Attempted int
	Failed    int
	Aborted   bool
}

// Health is the monitor's externally visible cycle-health snapshot.
type Health struct {
	State         string    `json:"state"`
	Mode          string    `json:"mode"`
	PollInterval  string    `json:"poll_interval"`
	LastSweep     time.Time `json:"last_sweep"`
	SweepSeconds  float64   `json:"sweep_seconds"`
	Attempted     int       `json:"sensors_attempted"`
	ReadFailures  int       `json:"read_failures"`
	Sensors       int       `json:"registered_sensors"`
	OccupiedSlots []int     `json:"occupied_slots"`
}

// Options configures a Scheduler. Gateway, Registry, Observability, Discovery
// and Interval are required; the interval is deliberately never defaulted.
type Options struct {
	Gateway       ports.Gateway
	Registry      ports.Registry
	Observability ports.Observability
	Discovery     Discovery

	// Clock drives the tick loop; nil means the wall clock. Tests inject a
	// mock to run sweeps without real time delays.
	Clock clock.Clock

	// Interval is the target period between sweep starts. A sweep that runs
	// longer than the interval is followed immediately by the next one;
	// sweeps never overlap.
	Interval time.Duration

	// Slots are the candidate slot numbers, ascending. Static mode builds an
	// entry for each; dynamic mode only consults the occupancy probe.
	Slots []int
}

// Scheduler drives the poll loop: one full sweep (crate sensors, then all
// materialized slot sensors in ascending slot order) per tick, with per-sensor
// failure isolation. Exactly one sweep is in flight at any time; IPMI access
// to a single shelf manager is serialized at the transport anyway, so
// parallel reads would only add races against one hardware endpoint.
type Scheduler struct {
	gw       ports.Gateway
	registry ports.Registry
	obs      ports.Observability
	disc     Discovery
	clk      clock.Clock
	interval time.Duration
	slots    []int

	catalog *Catalog
	tracker *PresenceTracker

	state  atomic.Int32
	cancel context.CancelFunc
	runCtx context.Context
	doneCh chan struct{}

	mu     sync.Mutex
	health Health
}

func NewScheduler(opts Options) (*Scheduler, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Observability == nil {
		return nil, fmt.Errorf("observability is required")
	}
	if opts.Discovery == nil {
		return nil, fmt.Errorf("discovery strategy is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be explicit and positive")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	slots := make([]int, len(opts.Slots))
	copy(slots, opts.Slots)
	sort.Ints(slots)

	return &Scheduler{
		gw:       opts.Gateway,
		registry: opts.Registry,
		obs:      opts.Observability,
		disc:     opts.Discovery,
		clk:      clk,
		interval: opts.Interval,
		slots:    slots,
		tracker:  NewPresenceTracker(opts.Registry, opts.Observability),
	}, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Start builds the catalog and launches the poll loop. It fails only if the
// mandatory crate enumeration fails; any per-board failure degrades into
// Running with partial data. The context bounds startup IPMI calls only.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("monitor already started (state %s)", s.State())
	}

	if err := s.buildCatalog(ctx); err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("monitor startup: %w", err)
	}

	s.runCtx, s.cancel = context.WithCancel(context.Background())
	s.doneCh = make(chan struct{})
	s.snapshotHealth(SweepResult{})
	s.state.Store(int32(StateRunning))

	s.obs.LogInfo("monitor running",
		ports.Field{Key: "mode", Value: string(s.disc.Mode())},
		ports.Field{Key: "sensors", Value: s.catalog.SensorCount()},
		ports.Field{Key: "occupied_slots", Value: len(s.catalog.MaterializedSlots())})

	go s.run()
	return nil
}

// buildCatalog performs the one-time startup discovery: the mandatory crate
// enumeration, then per-slot entries according to the discovery strategy.
func (s *Scheduler) buildCatalog(ctx context.Context) error {
	crate, err := BuildCrateCatalog(ctx, s.gw, s.disc.Mode())
	if err != nil {
		return err
	}
	cat := NewCatalog(crate)
	s.tracker.Materialize(crate)

	if s.disc.TracksPresence() {
		for _, n := range s.slots {
			entry, _ := s.disc.BuildSlotCatalog(ctx, n)
			cat.addSlot(n, entry)
		}
		occ, err := s.gw.OccupiedSlots(ctx)
		if err != nil {
			// Not fatal: slots materialize on the first successful probe.
			s.obs.LogError("initial occupancy probe", err)
		} else {
			s.tracker.Reconcile(cat, slotSet(occ))
		}
	} else {
		occ, err := s.gw.OccupiedSlots(ctx)
		if err != nil {
			s.obs.LogError("initial occupancy probe", err)
			occ = nil
		}
		sort.Ints(occ)
		for _, n := range occ {
			entry, err := s.disc.BuildSlotCatalog(ctx, n)
			if err != nil {
				s.obs.LogError("slot discovery gap", err,
					ports.Field{Key: "slot", Value: n})
			}
			cat.addSlot(n, entry)
			s.tracker.Materialize(entry)
		}
	}

	s.catalog = cat
	return nil
}

// Stop abandons any in-flight sweep at the next inter-read cancellation point
// and waits for the loop to exit, so the registry is never left mid-sweep by
// a pass that will not finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil
	}
	s.cancel()
	select {
	case <-s.doneCh:
	case <-ctx.Done():
		s.state.Store(int32(StateStopped))
		return ctx.Err()
	}
	s.state.Store(int32(StateStopped))
	s.obs.LogInfo("monitor stopped")
	return nil
}

// Health returns the latest cycle-health snapshot.
func (s *Scheduler) Health() Health {
	s.mu.Lock()
	h := s.health
	s.mu.Unlock()
	h.State = s.State().String()
	return h
}

func (s *Scheduler) run() {
	defer close(s.doneCh)

	// First sweep immediately, then on every tick. A sweep that outlasts the
	// interval leaves one tick pending in the channel, so the next sweep
	// starts right after completion without ever overlapping.
	s.sweep()

	ticker := s.clk.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.runCtx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Scheduler) sweep() {
	start := s.clk.Now()
	res := SweepResult{Started: start}

	if s.disc.TracksPresence() {
		occ, err := s.gw.OccupiedSlots(s.runCtx)
		if err != nil {
			// A failed probe is not a confirmed removal: keep the current
			// materialization and try again next cycle.
			s.obs.LogError("occupancy probe", err)
			s.obs.IncCounter("atca_occupancy_probe_failures_total", 1)
		} else {
			s.tracker.Reconcile(s.catalog, slotSet(occ))
		}
	}

	if s.readScope(s.catalog.Crate(), &res) {
		for _, n := range s.catalog.MaterializedSlots() {
			entry, _ := s.catalog.Slot(n)
			if !s.readScope(entry, &res) {
				break
			}
		}
	}

	res.Duration = s.clk.Since(start)
	s.obs.IncCounter("atca_sweeps_total", 1)
	s.obs.IncCounter("atca_read_failures_total", float64(res.Failed))
	s.obs.ObserveLatency("atca_sweep_duration_seconds", res.Duration.Seconds())
	s.snapshotHealth(res)
}

// readScope reads every sensor of one entry in declared order. Reads are
// isolated: a failure is counted and the descriptor's last value left
// untouched. Returns false when the sweep is being abandoned on shutdown.
func (s *Scheduler) readScope(entry *ScopeEntry, res *SweepResult) bool {
	for _, name := range entry.names {
		select {
		case <-s.runCtx.Done():
			res.Aborted = true
			return false
		default:
		}

		d := entry.sensors[name]
		res.Attempted++
		r, err := s.gw.ReadSensor(s.runCtx, entry.scope, name)
		if err != nil {
			res.Failed++
			s.obs.LogError("sensor read", err,
				ports.Field{Key: "path", Value: d.Path()})
			continue
		}
		d.Last = &r
		if err := s.registry.UpdateValue(d.Path(), r); err != nil {
			s.obs.LogError("registry update", err,
				ports.Field{Key: "path", Value: d.Path()})
		}
	}
	return true
}

func (s *Scheduler) snapshotHealth(res SweepResult) {
	sensors := s.catalog.SensorCount()
	occupied := s.catalog.MaterializedSlots()
	s.obs.SetGauge("atca_registered_sensors", float64(sensors))
	s.obs.SetGauge("atca_occupied_slots", float64(len(occupied)))

	s.mu.Lock()
	s.health = Health{
		Mode:          string(s.disc.Mode()),
		PollInterval:  s.interval.String(),
		LastSweep:     res.Started,
		SweepSeconds:  res.Duration.Seconds(),
		Attempted:     res.Attempted,
		ReadFailures:  res.Failed,
		Sensors:       sensors,
		OccupiedSlots: occupied,
	}
	s.mu.Unlock()
}

func slotSet(slots []int) map[int]bool {
	set := make(map[int]bool, len(slots))
	for _, n := range slots {
		set[n] = true
	}
	return set
}
