package ports

import "github.com/slaclab/smurf-atca-monitor/internal/domain"

// Registry is the addressable latest-value store the monitor publishes into.
// Paths disambiguate crate-scope ("crate/<name>") from slot-scope
// ("slot/<n>/<name>") sensors.
type Registry interface {
	RegisterSensor(path string, kind domain.SensorKind, unit string) error
	UnregisterSensor(path string) error
	UpdateValue(path string, r domain.Reading) error
}
