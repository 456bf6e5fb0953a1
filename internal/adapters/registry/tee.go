package registry

import (
	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// Tee fans every registry operation out to a primary registry plus
// best-effort mirrors. The primary's result is authoritative; mirror errors
// are logged and counted but never fail the polling flow, so a slow or down
// database cannot stall sensor collection.
type Tee struct {
	primary ports.Registry
	mirrors []ports.Registry
	obs     ports.Observability
}

func NewTee(primary ports.Registry, obs ports.Observability, mirrors ...ports.Registry) *Tee {
	return &Tee{primary: primary, mirrors: mirrors, obs: obs}
}

func (t *Tee) RegisterSensor(path string, kind domain.SensorKind, unit string) error {
	err := t.primary.RegisterSensor(path, kind, unit)
	for _, m := range t.mirrors {
		if e := m.RegisterSensor(path, kind, unit); e != nil {
			t.mirrorError("mirror register", path, e)
		}
	}
	return err
}

func (t *Tee) UnregisterSensor(path string) error {
	err := t.primary.UnregisterSensor(path)
	for _, m := range t.mirrors {
		if e := m.UnregisterSensor(path); e != nil {
			t.mirrorError("mirror unregister", path, e)
		}
	}
	return err
}

func (t *Tee) UpdateValue(path string, reading domain.Reading) error {
	err := t.primary.UpdateValue(path, reading)
	for _, m := range t.mirrors {
		if e := m.UpdateValue(path, reading); e != nil {
			t.mirrorError("mirror update", path, e)
		}
	}
	return err
}

func (t *Tee) mirrorError(op, path string, err error) {
	t.obs.LogError(op, err, ports.Field{Key: "path", Value: path})
	t.obs.IncCounter("atca_registry_mirror_errors_total", 1)
}

var _ ports.Registry = (*Tee)(nil)
