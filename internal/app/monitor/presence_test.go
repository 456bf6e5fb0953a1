package monitor

import (
	"reflect"
	"testing"
	"time"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
)

func staticCatalog(slots ...int) *Catalog {
	crate := newScopeEntry(domain.CrateScope(), ModeStatic, []domain.SensorInfo{{Name: "T1"}})
	cat := NewCatalog(crate)
	for _, n := range slots {
		cat.addSlot(n, newScopeEntry(domain.SlotScope(n), ModeStatic,
			[]domain.SensorInfo{{Name: "V1", Kind: domain.SensorThreshold, Unit: "Volts"}}))
	}
	return cat
}

func TestReconcileRegistersExactlyOnce(t *testing.T) {
	reg := newMockRegistry()
	tracker := NewPresenceTracker(reg, &mockObs{})
	cat := staticCatalog(2, 3)

	tracker.Reconcile(cat, map[int]bool{2: true})
	if got := reg.registerCount("slot/2/V1"); got != 1 {
		t.Fatalf("expected slot/2/V1 registered once, got %d", got)
	}

	// Idempotent: same occupancy again is a no-op.
	tracker.Reconcile(cat, map[int]bool{2: true})
	if got := reg.registerCount("slot/2/V1"); got != 1 {
		t.Fatalf("expected no double-registration, got %d", got)
	}
	if got := reg.registerCount("slot/3/V1"); got != 0 {
		t.Fatalf("unoccupied slot 3 must not register, got %d", got)
	}
}

func TestReconcileUnregistersAndRetainsDescriptors(t *testing.T) {
	reg := newMockRegistry()
	tracker := NewPresenceTracker(reg, &mockObs{})
	cat := staticCatalog(2)

	tracker.Reconcile(cat, map[int]bool{2: true})
	entry, _ := cat.Slot(2)
	entry.Sensor("V1").Last = &domain.Reading{Value: 11.9, Taken: time.Now()}

	tracker.Reconcile(cat, map[int]bool{})
	if got := reg.unregistered["slot/2/V1"]; got != 1 {
		t.Fatalf("expected slot/2/V1 unregistered once, got %d", got)
	}
	if entry.Materialized() {
		t.Fatalf("entry must be unmaterialized after carrier removal")
	}
	d := entry.Sensor("V1")
	if d == nil || d.Last == nil || d.Last.Value != 11.9 {
		t.Fatalf("descriptors must be retained across removal, got %+v", d)
	}

	// Re-insertion re-registers from retained descriptors, no enumeration.
	tracker.Reconcile(cat, map[int]bool{2: true})
	if got := reg.registerCount("slot/2/V1"); got != 2 {
		t.Fatalf("expected re-registration on re-insertion, got %d", got)
	}
}

func TestReconcileAscendingSlotOrder(t *testing.T) {
	reg := newMockRegistry()
	tracker := NewPresenceTracker(reg, &mockObs{})
	cat := staticCatalog(7, 2, 5)

	tracker.Reconcile(cat, map[int]bool{2: true, 5: true, 7: true})

	want := []string{"register slot/2/V1", "register slot/5/V1", "register slot/7/V1"}
	if got := reg.opList(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ascending registry ordering %v, got %v", want, got)
	}
}
