package atcamon

import (
	base "github.com/slaclab/smurf-atca-monitor/pkg/atcamon"
)

// Type aliases so consumers can import the module root directly.
type (
	Config           = base.Config
	IPMIConfig       = base.IPMIConfig
	MetricsConfig    = base.MetricsConfig
	HTTPConfig       = base.HTTPConfig
	PostgresConfig   = base.PostgresConfig
	StaticSensorSpec = base.StaticSensorSpec
	Health           = base.Health
	Mode             = base.Mode
	Runtime          = base.Runtime
	RuntimeOption    = base.RuntimeOption
	Gateway          = base.Gateway
	Registry         = base.Registry
	Observability    = base.Observability
	Field            = base.Field
	Scope            = base.Scope
	SensorKind       = base.SensorKind
	SensorInfo       = base.SensorInfo
	Reading          = base.Reading
)

const (
	ModeStatic  = base.ModeStatic
	ModeDynamic = base.ModeDynamic

	SensorThreshold = base.SensorThreshold
	SensorDiscrete  = base.SensorDiscrete
)

// Scope constructors.
func CrateScope() Scope { return base.CrateScope() }

func SlotScope(n int) Scope { return base.SlotScope(n) }

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime construction and dependency overrides.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithGateway(gw base.Gateway) RuntimeOption {
	return base.WithGateway(gw)
}

func WithMirror(m base.Registry) RuntimeOption {
	return base.WithMirror(m)
}

func WithObservability(obs base.Observability) RuntimeOption {
	return base.WithObservability(obs)
}
