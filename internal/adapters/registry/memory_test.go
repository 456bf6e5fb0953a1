package registry

import (
	"testing"
	"time"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
)

func TestMemoryRegistrationOrder(t *testing.T) {
	m := NewMemory()
	for _, p := range []string{"crate/T1", "slot/2/V1", "slot/5/V1"} {
		if err := m.RegisterSensor(p, domain.SensorThreshold, "Volts"); err != nil {
			t.Fatalf("register %s: %v", p, err)
		}
	}

	snap := m.Snapshot()
	if len(snap) != 3 || snap[0].Path != "crate/T1" || snap[2].Path != "slot/5/V1" {
		t.Fatalf("unexpected snapshot order: %+v", snap)
	}
}

func TestMemoryDuplicateRegistration(t *testing.T) {
	m := NewMemory()
	if err := m.RegisterSensor("crate/T1", domain.SensorThreshold, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.RegisterSensor("crate/T1", domain.SensorThreshold, ""); err == nil {
		t.Fatalf("duplicate registration must be rejected")
	}
}

func TestMemoryUpdateAndLookup(t *testing.T) {
	m := NewMemory()
	if err := m.UpdateValue("crate/T1", domain.Reading{Value: 1}); err == nil {
		t.Fatalf("update before registration must fail")
	}

	_ = m.RegisterSensor("crate/T1", domain.SensorThreshold, "degrees C")
	r := domain.Reading{Value: 38.5, Taken: time.Now()}
	if err := m.UpdateValue("crate/T1", r); err != nil {
		t.Fatalf("update: %v", err)
	}

	e, ok := m.Lookup("crate/T1")
	if !ok || e.Value == nil || e.Value.Value != 38.5 || e.Unit != "degrees C" {
		t.Fatalf("unexpected entry: %+v ok=%v", e, ok)
	}
}

func TestMemoryUnregisterRemovesFromSnapshot(t *testing.T) {
	m := NewMemory()
	_ = m.RegisterSensor("crate/T1", domain.SensorThreshold, "")
	_ = m.RegisterSensor("slot/2/V1", domain.SensorThreshold, "")

	if err := m.UnregisterSensor("slot/2/V1"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := m.UnregisterSensor("slot/2/V1"); err == nil {
		t.Fatalf("double unregister must fail")
	}

	snap := m.Snapshot()
	if len(snap) != 1 || snap[0].Path != "crate/T1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if _, ok := m.Lookup("slot/2/V1"); ok {
		t.Fatalf("unregistered sensor must not resolve")
	}
}
