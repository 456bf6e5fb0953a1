package domain

import (
	"fmt"
	"time"
)

// Scope identifies the owner of a sensor: the crate itself (shelf manager)
// or a numbered carrier slot.
type Scope struct {
	slot int // 0 means crate
}

// CrateScope returns the scope for chassis-level sensors.
func CrateScope() Scope { return Scope{} }

// SlotScope returns the scope for sensors on the carrier in the given slot.
func SlotScope(n int) Scope { return Scope{slot: n} }

// IsCrate reports whether the scope is the crate itself.
func (s Scope) IsCrate() bool { return s.slot == 0 }

// Slot returns the slot number, or 0 for the crate scope.
func (s Scope) Slot() int { return s.slot }

func (s Scope) String() string {
	if s.IsCrate() {
		return "crate"
	}
	return fmt.Sprintf("slot/%d", s.slot)
}

// SensorKind says how a raw IPMI reading is interpreted. Threshold sensors
// ("full" SDR records) carry engineering values with a unit; discrete sensors
// ("compact" records) carry a raw state word.
type SensorKind string

const (
	SensorThreshold SensorKind = "threshold"
	SensorDiscrete  SensorKind = "discrete"
)

// SensorInfo is the identity of a sensor as enumerated over IPMI or declared
// in a static table.
type SensorInfo struct {
	Name string
	Kind SensorKind
	Unit string
}

// Reading is one successful sensor read.
type Reading struct {
	Value float64
	State string // raw state word for discrete sensors, empty otherwise
	Taken time.Time
}

// SensorDescriptor is the monitored identity plus the last successfully read
// value. Descriptors are owned exclusively by the catalog entry for their
// scope; nothing outside the polling flow mutates them.
type SensorDescriptor struct {
	Scope Scope
	Name  string
	Kind  SensorKind
	Unit  string

	// Last is nil until the first successful read. A failed read leaves it
	// untouched: stale-but-present beats erasing a value on a transient error.
	Last *Reading
}

// Path returns the registry path for the descriptor, e.g. "crate/Fan_1" or
// "slot/2/Hot_Swap".
func (d *SensorDescriptor) Path() string {
	return SensorPath(d.Scope, d.Name)
}

// SensorPath builds the registry path for a sensor in the given scope.
func SensorPath(scope Scope, name string) string {
	return scope.String() + "/" + name
}
