package ipmitool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// IPMB addressing on an ATCA shelf: the shelf manager answers at 0x20 and the
// carrier in physical slot N at 0x80 + 2N.
const (
	shelfManagerAddr = 0x20
	slotAddrBase     = 0x80
)

// presenceProbe is the raw PICMG command used to detect a carrier: netfn 0x34,
// command 0x05, bay 4. A response means a board answers on that address; an
// error or timeout means the slot is empty, which is the normal outcome for
// most slots and never logged as a failure.
var presenceProbe = []string{"raw", "0x34", "0x05", "0x04"}

// Config captures the runtime details required to reach a shelf manager over
// RMCP with the ipmitool CLI.
type Config struct {
	Shelfmanager string        `yaml:"shelfmanager"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	Interface    string        `yaml:"interface"`
	Port         int           `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	Path         string        `yaml:"ipmitool_path"`
	FirstSlot    int           `yaml:"first_slot"`
	LastSlot     int           `yaml:"last_slot"`
}

func (c *Config) ApplyDefaults() {
	if c.Interface == "" {
		c.Interface = "lan"
	}
	if c.Port <= 0 {
		c.Port = 623
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Path == "" {
		c.Path = "ipmitool"
	}
	if c.FirstSlot == 0 && c.LastSlot == 0 {
		c.FirstSlot = 2
		c.LastSlot = 7
	}
}

func (c *Config) Validate() error {
	if c.Shelfmanager == "" {
		return errors.New("shelfmanager is required")
	}
	if c.FirstSlot < 1 {
		return fmt.Errorf("first_slot must be >= 1, got %d", c.FirstSlot)
	}
	if c.LastSlot < c.FirstSlot {
		return fmt.Errorf("last_slot %d below first_slot %d", c.LastSlot, c.FirstSlot)
	}
	return nil
}

// Slots returns the candidate slot numbers, ascending.
func (c *Config) Slots() []int {
	out := make([]int, 0, c.LastSlot-c.FirstSlot+1)
	for n := c.FirstSlot; n <= c.LastSlot; n++ {
		out = append(out, n)
	}
	return out
}

// runner executes one ipmitool invocation. Tests substitute a fake to feed
// canned CLI output.
type runner interface {
	run(ctx context.Context, args ...string) (string, error)
}

type execRunner struct {
	path string
}

func (r execRunner) run(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, r.path, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %s", r.path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", r.path, err)
	}
	return string(out), nil
}

// Gateway talks IPMI to one shelf manager by shelling out to ipmitool, the
// same transport the shelf vendors validate against. Bridged access to a
// carrier uses the -t target address; the shelf manager itself is the default
// target.
type Gateway struct {
	cfg Config
	run runner

	// raw IPMI sensor names keyed by sanitized name, filled in during
	// enumeration so reads can be issued with the exact firmware spelling.
	mu    sync.Mutex
	names map[string]string
}

func NewGateway(cfg Config) (*Gateway, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gateway{
		cfg:   cfg,
		run:   execRunner{path: cfg.Path},
		names: make(map[string]string),
	}, nil
}

func carrierAddr(slot int) int {
	return slotAddrBase + 2*slot
}

// baseArgs builds the session arguments. target 0 means the shelf manager.
func (g *Gateway) baseArgs(target int) []string {
	args := []string{
		"-I", g.cfg.Interface,
		"-H", g.cfg.Shelfmanager,
		"-p", strconv.Itoa(g.cfg.Port),
	}
	if g.cfg.Username != "" {
		args = append(args, "-U", g.cfg.Username)
	}
	if g.cfg.Password != "" {
		args = append(args, "-P", g.cfg.Password)
	}
	if target != 0 {
		args = append(args, "-t", fmt.Sprintf("0x%02x", target))
	}
	return args
}

func (g *Gateway) command(ctx context.Context, target int, cmd ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	return g.run.run(ctx, append(g.baseArgs(target), cmd...)...)
}

func (g *Gateway) CrateSensors(ctx context.Context) ([]domain.SensorInfo, error) {
	out, err := g.command(ctx, 0, "sdr", "elist")
	if err != nil {
		return nil, fmt.Errorf("sdr elist (shelf manager): %w", err)
	}
	return g.recordNames(parseSDRList(out)), nil
}

func (g *Gateway) CarrierSensors(ctx context.Context, slot int) ([]domain.SensorInfo, error) {
	out, err := g.command(ctx, carrierAddr(slot), "sdr", "elist")
	if err != nil {
		return nil, fmt.Errorf("sdr elist (slot %d): %w", slot, err)
	}
	return g.recordNames(parseSDRList(out)), nil
}

// OccupiedSlots probes every candidate slot with the PICMG presence command.
// A probe failure means "no carrier": empty slots simply do not answer, so
// individual probe errors are expected and swallowed here. Only a cancelled
// context aborts the scan with an error.
func (g *Gateway) OccupiedSlots(ctx context.Context) ([]int, error) {
	var occupied []int
	for n := g.cfg.FirstSlot; n <= g.cfg.LastSlot; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := g.command(ctx, carrierAddr(n), presenceProbe...); err == nil {
			occupied = append(occupied, n)
		}
	}
	return occupied, nil
}

func (g *Gateway) ReadSensor(ctx context.Context, scope domain.Scope, name string) (domain.Reading, error) {
	target := 0
	if !scope.IsCrate() {
		target = carrierAddr(scope.Slot())
	}
	out, err := g.command(ctx, target, "sensor", "reading", g.rawName(name))
	if err != nil {
		return domain.Reading{}, fmt.Errorf("read %s: %w", domain.SensorPath(scope, name), err)
	}
	r, err := parseSensorReading(out)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("read %s: %w", domain.SensorPath(scope, name), err)
	}
	r.Taken = time.Now()
	return r, nil
}

func (g *Gateway) recordNames(infos []domain.SensorInfo, raws []string) []domain.SensorInfo {
	g.mu.Lock()
	for i, info := range infos {
		g.names[info.Name] = raws[i]
	}
	g.mu.Unlock()
	return infos
}

// rawName maps a sanitized name back to the firmware spelling when the sensor
// was seen during enumeration. Declared static tables use the firmware names
// directly, so an unknown name passes through untouched.
func (g *Gateway) rawName(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if raw, ok := g.names[name]; ok {
		return raw
	}
	return name
}

// sanitizeName makes an IPMI sensor name safe for use as a path component.
func sanitizeName(name string) string {
	return strings.NewReplacer(" ", "_", ".", "_", "/", "_").Replace(strings.TrimSpace(name))
}

// parseSDRList parses `ipmitool sdr elist` output. Each line is pipe
// separated:
//
//	BoardTemp: FPGA   | C3h | ok  | 193.101 | 38 degrees C
//	Hot Swap          | F0h | ok  | 193.101 | 0x0400
//
// A hex reading marks a compact/discrete record; anything with a numeric
// reading and trailing unit text is a full/threshold record. Malformed lines
// are skipped.
func parseSDRList(out string) ([]domain.SensorInfo, []string) {
	var infos []domain.SensorInfo
	var raws []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "|")
		if len(fields) < 5 {
			continue
		}
		raw := strings.TrimSpace(fields[0])
		if raw == "" {
			continue
		}
		reading := strings.TrimSpace(fields[4])
		info := domain.SensorInfo{Name: sanitizeName(raw)}
		if strings.HasPrefix(reading, "0x") {
			info.Kind = domain.SensorDiscrete
		} else {
			info.Kind = domain.SensorThreshold
			info.Unit = readingUnit(reading)
		}
		infos = append(infos, info)
		raws = append(raws, raw)
	}
	return infos, raws
}

// readingUnit strips the leading numeric value from a threshold reading,
// leaving the engineering unit ("38 degrees C" -> "degrees C").
func readingUnit(reading string) string {
	parts := strings.SplitN(reading, " ", 2)
	if len(parts) < 2 {
		return ""
	}
	if _, err := strconv.ParseFloat(parts[0], 64); err != nil {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parseSensorReading parses `ipmitool sensor reading <name>` output, a single
// "name | value" line. Discrete sensors report a hex state word; threshold
// sensors report the converted engineering value.
func parseSensorReading(out string) (domain.Reading, error) {
	line := strings.TrimSpace(out)
	fields := strings.SplitN(line, "|", 2)
	if len(fields) < 2 {
		return domain.Reading{}, fmt.Errorf("unexpected sensor output %q", line)
	}
	val := strings.TrimSpace(fields[1])
	switch {
	case val == "" || strings.EqualFold(val, "ns") || strings.EqualFold(val, "no reading"):
		return domain.Reading{}, fmt.Errorf("sensor has no reading")
	case strings.HasPrefix(val, "0x"):
		word, err := strconv.ParseUint(val[2:], 16, 64)
		if err != nil {
			return domain.Reading{}, fmt.Errorf("bad discrete state %q", val)
		}
		return domain.Reading{Value: float64(word), State: val}, nil
	default:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return domain.Reading{}, fmt.Errorf("bad sensor value %q", val)
		}
		return domain.Reading{Value: f}, nil
	}
}

var _ ports.Gateway = (*Gateway)(nil)
