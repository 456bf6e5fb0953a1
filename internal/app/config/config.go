package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slaclab/smurf-atca-monitor/internal/adapters/ipmitool"
	"github.com/slaclab/smurf-atca-monitor/internal/app/monitor"
	"github.com/slaclab/smurf-atca-monitor/internal/domain"
)

type Config struct {
	// Shelfmanager is a convenience alias for ipmi.shelfmanager, matching the
	// way operators name a crate ("shm-b084-1").
	Shelfmanager string        `yaml:"shelfmanager"`
	Mode         string        `yaml:"mode"`
	PollInterval time.Duration `yaml:"poll_interval"`

	IPMI     ipmitool.Config    `yaml:"ipmi"`
	Metrics  MetricsConfig      `yaml:"metrics"`
	HTTP     HTTPConfig         `yaml:"http"`
	Postgres PostgresConfig     `yaml:"postgres"`
	Static   []StaticSensorSpec `yaml:"static_sensors"`
}

// StaticSensorSpec declares one carrier sensor for static mode, overriding the
// built-in table when present.
type StaticSensorSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Unit string `yaml:"unit"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// PostgresConfig enables the optional latest-value mirror when conn_string is
// set.
type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = string(monitor.ModeStatic)
	}
	if c.Shelfmanager != "" && c.IPMI.Shelfmanager == "" {
		c.IPMI.Shelfmanager = c.Shelfmanager
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8910"
	}
	if c.Postgres.Table == "" {
		c.Postgres.Table = "atca_sensors"
	}
	for i := range c.Static {
		if c.Static[i].Kind == "" {
			c.Static[i].Kind = string(domain.SensorThreshold)
		}
	}

	c.IPMI.ApplyDefaults()
}

func (c *Config) validate() error {
	if err := c.IPMI.Validate(); err != nil {
		return fmt.Errorf("ipmi config: %w", err)
	}
	// No default on purpose: the right period depends on crate size and IPMI
	// latency, so the operator must choose one.
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval is required and must be positive")
	}
	if c.Mode != string(monitor.ModeStatic) && c.Mode != string(monitor.ModeDynamic) {
		return fmt.Errorf("mode must be %q or %q, got %q",
			monitor.ModeStatic, monitor.ModeDynamic, c.Mode)
	}
	for _, s := range c.Static {
		if s.Name == "" {
			return fmt.Errorf("static_sensors entries require a name")
		}
		if s.Kind != string(domain.SensorThreshold) && s.Kind != string(domain.SensorDiscrete) {
			return fmt.Errorf("static sensor %s: kind must be %q or %q",
				s.Name, domain.SensorThreshold, domain.SensorDiscrete)
		}
	}
	return nil
}

// MonitorMode returns the validated discovery mode.
func (c *Config) MonitorMode() monitor.Mode {
	return monitor.Mode(c.Mode)
}

// StaticTable converts declared static sensors to the domain form. Nil when no
// override is configured, which selects the built-in carrier table.
func (c *Config) StaticTable() []domain.SensorInfo {
	if len(c.Static) == 0 {
		return nil
	}
	out := make([]domain.SensorInfo, 0, len(c.Static))
	for _, s := range c.Static {
		out = append(out, domain.SensorInfo{
			Name: s.Name,
			Kind: domain.SensorKind(s.Kind),
			Unit: s.Unit,
		})
	}
	return out
}
