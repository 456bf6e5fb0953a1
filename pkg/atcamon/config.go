package atcamon

import (
	"github.com/slaclab/smurf-atca-monitor/internal/adapters/ipmitool"
	"github.com/slaclab/smurf-atca-monitor/internal/app/config"
	"github.com/slaclab/smurf-atca-monitor/internal/app/monitor"
	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// IPMIConfig holds shelf manager connection details.
	IPMIConfig = ipmitool.Config
	// MetricsConfig configures the Prometheus metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// HTTPConfig configures the registry/status API server.
	HTTPConfig = config.HTTPConfig
	// PostgresConfig configures the optional latest-value mirror.
	PostgresConfig = config.PostgresConfig
	// StaticSensorSpec declares one carrier sensor for static mode.
	StaticSensorSpec = config.StaticSensorSpec
	// Health is the monitor's cycle-health snapshot.
	Health = monitor.Health
	// Mode selects between static and dynamic sensor discovery.
	Mode = monitor.Mode
)

// Port interfaces, re-exported so callers can supply custom implementations
// through RuntimeOption values without importing internal packages.
type (
	Gateway       = ports.Gateway
	Registry      = ports.Registry
	Observability = ports.Observability
	Field         = ports.Field
)

const (
	ModeStatic  = monitor.ModeStatic
	ModeDynamic = monitor.ModeDynamic
)

// Domain types, re-exported for custom gateways and registries.
type (
	Scope      = domain.Scope
	SensorKind = domain.SensorKind
	SensorInfo = domain.SensorInfo
	Reading    = domain.Reading
)

const (
	SensorThreshold = domain.SensorThreshold
	SensorDiscrete  = domain.SensorDiscrete
)

// CrateScope returns the scope for chassis-level sensors.
func CrateScope() Scope { return domain.CrateScope() }

// SlotScope returns the scope for sensors on the carrier in the given slot.
func SlotScope(n int) Scope { return domain.SlotScope(n) }

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
