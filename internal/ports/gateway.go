package ports

import (
	"context"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
)

// Gateway is the IPMI transport to one shelf manager. All calls are
// synchronous and may fail with a transport error or a timeout; the core
// treats both identically.
type Gateway interface {
	// CrateSensors enumerates the chassis-level sensors on the shelf manager.
	CrateSensors(ctx context.Context) ([]domain.SensorInfo, error)

	// CarrierSensors enumerates the sensors on the carrier in the given slot.
	CarrierSensors(ctx context.Context, slot int) ([]domain.SensorInfo, error)

	// OccupiedSlots probes which slots currently hold a carrier, ascending.
	OccupiedSlots(ctx context.Context) ([]int, error)

	// ReadSensor issues one read for the named sensor in the given scope.
	ReadSensor(ctx context.Context, scope domain.Scope, name string) (domain.Reading, error)
}
