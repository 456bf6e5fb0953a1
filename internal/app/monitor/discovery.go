package monitor

import (
	"context"
	"fmt"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// Discovery is the strategy that decides how per-slot sensor sets come into
// existence and whether slot occupancy is tracked across poll cycles.
type Discovery interface {
	// BuildSlotCatalog constructs the entry for one slot. Static discovery
	// never touches the gateway; dynamic discovery enumerates live and, on
	// failure, returns an empty entry alongside the error so a single bad
	// board degrades to a discovery gap instead of aborting startup.
	BuildSlotCatalog(ctx context.Context, slot int) (*ScopeEntry, error)

	// TracksPresence reports whether occupancy is re-checked every cycle.
	TracksPresence() bool

	Mode() Mode
}

// BuildCrateCatalog enumerates the crate sensors over the gateway and builds
// the mandatory crate entry. Called exactly once, at startup; an error here
// fails the whole monitor startup (no crate, no monitor).
func BuildCrateCatalog(ctx context.Context, gw ports.Gateway, mode Mode) (*ScopeEntry, error) {
	infos, err := gw.CrateSensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate crate sensors: %w", err)
	}
	return newScopeEntry(domain.CrateScope(), mode, infos), nil
}

// StaticDiscovery builds every slot's sensors from a declared table and leaves
// occupancy tracking to the presence tracker each cycle. The declared table is
// authoritative: the gateway is never asked to enumerate a carrier.
type StaticDiscovery struct {
	table []domain.SensorInfo
}

// NewStaticDiscovery returns a static strategy using the given declared
// sensor table; a nil or empty table falls back to the built-in ATCA carrier
// table.
func NewStaticDiscovery(table []domain.SensorInfo) *StaticDiscovery {
	if len(table) == 0 {
		table = DefaultCarrierSensors()
	}
	return &StaticDiscovery{table: table}
}

func (d *StaticDiscovery) BuildSlotCatalog(_ context.Context, slot int) (*ScopeEntry, error) {
	return newScopeEntry(domain.SlotScope(slot), ModeStatic, d.table), nil
}

func (d *StaticDiscovery) TracksPresence() bool { return true }

func (d *StaticDiscovery) Mode() Mode { return ModeStatic }

// DynamicDiscovery enumerates each occupied slot's carrier over the gateway.
// Used once at startup; the resulting catalog is fixed thereafter.
type DynamicDiscovery struct {
	gw ports.Gateway
}

func NewDynamicDiscovery(gw ports.Gateway) *DynamicDiscovery {
	return &DynamicDiscovery{gw: gw}
}

func (d *DynamicDiscovery) BuildSlotCatalog(ctx context.Context, slot int) (*ScopeEntry, error) {
	infos, err := d.gw.CarrierSensors(ctx, slot)
	if err != nil {
		// Discovery gap: record the slot with an empty sensor set rather
		// than letting one bad board prevent monitoring the rest.
		return newScopeEntry(domain.SlotScope(slot), ModeDynamic, nil),
			fmt.Errorf("enumerate slot %d sensors: %w", slot, err)
	}
	return newScopeEntry(domain.SlotScope(slot), ModeDynamic, infos), nil
}

func (d *DynamicDiscovery) TracksPresence() bool { return false }

func (d *DynamicDiscovery) Mode() Mode { return ModeDynamic }

// DefaultCarrierSensors is the declared sensor table for a SMuRF ATCA carrier
// board: hot-swap and IPMB state, board/junction temperatures, and the
// per-payload voltage and current monitors.
func DefaultCarrierSensors() []domain.SensorInfo {
	return []domain.SensorInfo{
		{Name: "Hot_Swap", Kind: domain.SensorDiscrete},
		{Name: "IPMB_Physical", Kind: domain.SensorDiscrete},
		{Name: "Version_change", Kind: domain.SensorDiscrete},
		{Name: "BoardTemp:RTM", Kind: domain.SensorThreshold, Unit: "degrees C"},
		{Name: "BoardTemp:FPGA", Kind: domain.SensorThreshold, Unit: "degrees C"},
		{Name: "JunctionTemp:FPG", Kind: domain.SensorThreshold, Unit: "degrees C"},
		{Name: "BoardTemp:AMC0", Kind: domain.SensorThreshold, Unit: "degrees C"},
		{Name: "BoardTemp:AMC2", Kind: domain.SensorThreshold, Unit: "degrees C"},
		{Name: "RTM_Hot_Swap", Kind: domain.SensorDiscrete},
		{Name: "AMC_0_Vok", Kind: domain.SensorDiscrete},
		{Name: "AMC_2_Vok", Kind: domain.SensorDiscrete},
		{Name: "FPGA_Vok", Kind: domain.SensorDiscrete},
		{Name: "AMC_0_+12V_Cur", Kind: domain.SensorThreshold, Unit: "Amps"},
		{Name: "AMC_2_+12V_Cur", Kind: domain.SensorThreshold, Unit: "Amps"},
		{Name: "FPGA_+12V_Cur", Kind: domain.SensorThreshold, Unit: "Amps"},
		{Name: "RTM_+12V_Cur", Kind: domain.SensorThreshold, Unit: "Amps"},
		{Name: "AMC_0_+12V_ADIN", Kind: domain.SensorThreshold, Unit: "Volts"},
		{Name: "AMC_2_+12V_ADIN", Kind: domain.SensorThreshold, Unit: "Volts"},
		{Name: "FPGA_+12V_ADIN", Kind: domain.SensorThreshold, Unit: "Volts"},
		{Name: "RTM_+12V_ADIN", Kind: domain.SensorThreshold, Unit: "Volts"},
	}
}

var (
	_ Discovery = (*StaticDiscovery)(nil)
	_ Discovery = (*DynamicDiscovery)(nil)
)
