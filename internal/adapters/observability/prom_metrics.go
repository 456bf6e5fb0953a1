package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	sweeps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atca_sweeps_total",
		Help: "Total poll sweeps completed.",
	})
	readFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atca_read_failures_total",
		Help: "Total individual sensor reads that failed.",
	})
	probeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atca_occupancy_probe_failures_total",
		Help: "Occupancy scans that errored and were skipped for the cycle.",
	})
	mirrorErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atca_registry_mirror_errors_total",
		Help: "Registry mirror writes that failed (primary unaffected).",
	})
	sensors := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atca_registered_sensors",
		Help: "Sensors currently published in the registry.",
	})
	occupied := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atca_occupied_slots",
		Help: "Carrier slots currently detected as occupied.",
	})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "atca_sweep_duration_seconds",
		Help:    "Wall time of one full sweep over crate and slot sensors.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	prometheus.MustRegister(sweeps, readFailures, probeFailures, mirrorErrors,
		sensors, occupied, sweepDuration)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"atca_sweeps_total":                   sweeps,
			"atca_read_failures_total":            readFailures,
			"atca_occupancy_probe_failures_total": probeFailures,
			"atca_registry_mirror_errors_total":   mirrorErrors,
		},
		gauges: map[string]prometheus.Gauge{
			"atca_registered_sensors": sensors,
			"atca_occupied_slots":     occupied,
		},
		histos: map[string]prometheus.Observer{
			"atca_sweep_duration_seconds": sweepDuration,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
