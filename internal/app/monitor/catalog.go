package monitor

import (
	"sort"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
)

// Mode selects how the monitored sensor set is determined.
type Mode string

const (
	// ModeStatic uses pre-declared per-slot sensor tables and re-checks slot
	// occupancy every poll cycle.
	ModeStatic Mode = "static"
	// ModeDynamic enumerates sensors over IPMI once at startup and never
	// re-discovers anything afterwards.
	ModeDynamic Mode = "dynamic"
)

// ScopeEntry holds the ordered sensor set for one scope: the crate, or one
// carrier slot. Membership of the crate entry and of dynamic-mode slot entries
// never changes after startup; static-mode slot entries flip between
// materialized and unmaterialized as carriers come and go, but their
// descriptors are retained across removals.
type ScopeEntry struct {
	scope domain.Scope
	mode  Mode

	names        []string // declared/enumerated order
	sensors      map[string]*domain.SensorDescriptor
	materialized bool
}

func newScopeEntry(scope domain.Scope, mode Mode, infos []domain.SensorInfo) *ScopeEntry {
	e := &ScopeEntry{
		scope:   scope,
		mode:    mode,
		sensors: make(map[string]*domain.SensorDescriptor, len(infos)),
	}
	for _, info := range infos {
		if _, dup := e.sensors[info.Name]; dup {
			continue
		}
		e.names = append(e.names, info.Name)
		e.sensors[info.Name] = &domain.SensorDescriptor{
			Scope: scope,
			Name:  info.Name,
			Kind:  info.Kind,
			Unit:  info.Unit,
		}
	}
	return e
}

// Scope returns the scope this entry belongs to.
func (e *ScopeEntry) Scope() domain.Scope { return e.scope }

// Mode returns the discovery mode the entry was built under.
func (e *ScopeEntry) Mode() Mode { return e.mode }

// Names returns the sensor names in declared/enumerated order.
func (e *ScopeEntry) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Sensor returns the descriptor for the named sensor, or nil.
func (e *ScopeEntry) Sensor(name string) *domain.SensorDescriptor {
	return e.sensors[name]
}

// Len returns the number of sensors in the entry.
func (e *ScopeEntry) Len() int { return len(e.names) }

// Materialized reports whether the entry's sensors are currently registered
// with the registry sink.
func (e *ScopeEntry) Materialized() bool { return e.materialized }

// Catalog maps scope keys to their entries. There is exactly one crate entry
// for the lifetime of the monitor and at most one entry per slot number. The
// catalog is mutated only by the scheduler's own flow of control.
type Catalog struct {
	crate *ScopeEntry
	slots map[int]*ScopeEntry
}

// NewCatalog builds a catalog around the mandatory crate entry.
func NewCatalog(crate *ScopeEntry) *Catalog {
	return &Catalog{
		crate: crate,
		slots: make(map[int]*ScopeEntry),
	}
}

// Crate returns the crate entry.
func (c *Catalog) Crate() *ScopeEntry { return c.crate }

// Slot returns the entry for the given slot number, if present.
func (c *Catalog) Slot(n int) (*ScopeEntry, bool) {
	e, ok := c.slots[n]
	return e, ok
}

func (c *Catalog) addSlot(n int, e *ScopeEntry) {
	c.slots[n] = e
}

// SlotNumbers returns all slot numbers with an entry, ascending.
func (c *Catalog) SlotNumbers() []int {
	out := make([]int, 0, len(c.slots))
	for n := range c.slots {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// MaterializedSlots returns the slot numbers whose sensors are currently
// registered, ascending. These are the slots a sweep visits.
func (c *Catalog) MaterializedSlots() []int {
	out := make([]int, 0, len(c.slots))
	for n, e := range c.slots {
		if e.materialized {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// SensorCount returns the number of registered sensors: the crate's plus
// those of every materialized slot.
func (c *Catalog) SensorCount() int {
	count := 0
	if c.crate.materialized {
		count = c.crate.Len()
	}
	for _, e := range c.slots {
		if e.materialized {
			count += e.Len()
		}
	}
	return count
}
