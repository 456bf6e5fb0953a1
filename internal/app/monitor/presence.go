package monitor

import (
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// PresenceTracker reconciles catalog membership with observed slot occupancy.
// It runs synchronously inside one poll tick, so no locking is needed beyond
// the scheduler's single-writer access to the catalog.
type PresenceTracker struct {
	registry ports.Registry
	obs      ports.Observability
}

func NewPresenceTracker(registry ports.Registry, obs ports.Observability) *PresenceTracker {
	return &PresenceTracker{registry: registry, obs: obs}
}

// Reconcile materializes slot entries that became occupied and unmaterializes
// entries whose carrier is gone. Slots are processed in ascending numeric
// order for deterministic registry update ordering. Calling twice with the
// same occupancy set is a no-op after the first call.
func (t *PresenceTracker) Reconcile(cat *Catalog, occupied map[int]bool) {
	for _, n := range cat.SlotNumbers() {
		entry, _ := cat.Slot(n)
		switch {
		case occupied[n] && !entry.materialized:
			t.Materialize(entry)
			t.obs.LogInfo("carrier inserted",
				ports.Field{Key: "slot", Value: n},
				ports.Field{Key: "sensors", Value: entry.Len()})
		case !occupied[n] && entry.materialized:
			t.Unmaterialize(entry)
			t.obs.LogInfo("carrier removed",
				ports.Field{Key: "slot", Value: n})
		}
	}
}

// Materialize registers every sensor of the entry with the registry sink and
// marks the entry materialized.
func (t *PresenceTracker) Materialize(entry *ScopeEntry) {
	if entry.materialized {
		return
	}
	for _, name := range entry.names {
		d := entry.sensors[name]
		if err := t.registry.RegisterSensor(d.Path(), d.Kind, d.Unit); err != nil {
			t.obs.LogError("register sensor", err,
				ports.Field{Key: "path", Value: d.Path()})
		}
	}
	entry.materialized = true
}

// Unmaterialize unregisters every sensor of the entry. Descriptors are
// retained, so re-insertion of the same board in static mode needs no fresh
// IPMI enumeration.
func (t *PresenceTracker) Unmaterialize(entry *ScopeEntry) {
	if !entry.materialized {
		return
	}
	for _, name := range entry.names {
		d := entry.sensors[name]
		if err := t.registry.UnregisterSensor(d.Path()); err != nil {
			t.obs.LogError("unregister sensor", err,
				ports.Field{Key: "path", Value: d.Path()})
		}
	}
	entry.materialized = false
}
