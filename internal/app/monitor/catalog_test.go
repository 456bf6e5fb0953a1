package monitor

import (
	"reflect"
	"testing"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
)

func TestScopeEntryPreservesDeclaredOrder(t *testing.T) {
	infos := []domain.SensorInfo{
		{Name: "Hot_Swap", Kind: domain.SensorDiscrete},
		{Name: "BoardTemp:FPGA", Kind: domain.SensorThreshold, Unit: "degrees C"},
		{Name: "Hot_Swap", Kind: domain.SensorDiscrete}, // duplicate, dropped
		{Name: "FPGA_Vok", Kind: domain.SensorDiscrete},
	}
	entry := newScopeEntry(domain.SlotScope(4), ModeStatic, infos)

	want := []string{"Hot_Swap", "BoardTemp:FPGA", "FPGA_Vok"}
	if got := entry.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected names %v, got %v", want, got)
	}
	if entry.Len() != 3 {
		t.Fatalf("expected 3 sensors, got %d", entry.Len())
	}
	d := entry.Sensor("BoardTemp:FPGA")
	if d == nil || d.Unit != "degrees C" || d.Scope.Slot() != 4 {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	if d.Last != nil {
		t.Fatalf("expected nil last reading before first read")
	}
}

func TestCatalogSlotOrdering(t *testing.T) {
	crate := newScopeEntry(domain.CrateScope(), ModeStatic, []domain.SensorInfo{{Name: "T1"}})
	cat := NewCatalog(crate)
	for _, n := range []int{7, 2, 5} {
		cat.addSlot(n, newScopeEntry(domain.SlotScope(n), ModeStatic, []domain.SensorInfo{{Name: "V1"}}))
	}

	if got, want := cat.SlotNumbers(), []int{2, 5, 7}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected slots %v, got %v", want, got)
	}
	if got := cat.MaterializedSlots(); len(got) != 0 {
		t.Fatalf("expected no materialized slots, got %v", got)
	}
	if cat.SensorCount() != 0 {
		t.Fatalf("expected no registered sensors before materialization, got %d", cat.SensorCount())
	}
}

func TestCatalogSensorCount(t *testing.T) {
	crate := newScopeEntry(domain.CrateScope(), ModeStatic, []domain.SensorInfo{{Name: "T1"}, {Name: "T2"}})
	cat := NewCatalog(crate)
	cat.addSlot(2, newScopeEntry(domain.SlotScope(2), ModeStatic, []domain.SensorInfo{{Name: "V1"}}))

	tracker := NewPresenceTracker(newMockRegistry(), &mockObs{})
	tracker.Materialize(cat.Crate())
	tracker.Reconcile(cat, map[int]bool{2: true})

	if cat.SensorCount() != 3 {
		t.Fatalf("expected 3 registered sensors, got %d", cat.SensorCount())
	}
	if got, want := cat.MaterializedSlots(), []int{2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected materialized slots %v, got %v", want, got)
	}
}
