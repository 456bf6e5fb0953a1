// Runs the monitor against a simulated crate: no shelf manager required.
// Useful for trying the HTTP surface (http://localhost:8910/registry) and the
// metrics endpoint without hardware.
package main

import (
	"context"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/slaclab/smurf-atca-monitor"
)

type simGateway struct{}

func (simGateway) CrateSensors(context.Context) ([]atcamon.SensorInfo, error) {
	return []atcamon.SensorInfo{
		{Name: "Fan_1", Kind: atcamon.SensorThreshold, Unit: "RPM"},
		{Name: "Fan_2", Kind: atcamon.SensorThreshold, Unit: "RPM"},
		{Name: "ShelfTemp", Kind: atcamon.SensorThreshold, Unit: "degrees C"},
	}, nil
}

func (simGateway) CarrierSensors(_ context.Context, slot int) ([]atcamon.SensorInfo, error) {
	return nil, nil
}

func (simGateway) OccupiedSlots(context.Context) ([]int, error) {
	return []int{2, 4}, nil
}

func (simGateway) ReadSensor(_ context.Context, scope atcamon.Scope, name string) (atcamon.Reading, error) {
	return atcamon.Reading{
		Value: 20 + rand.Float64()*10,
		Taken: time.Now(),
	}, nil
}

func main() {
	cfg := &atcamon.Config{
		Shelfmanager: "simulated",
		Mode:         string(atcamon.ModeStatic),
		PollInterval: 5 * time.Second,
	}
	cfg.IPMI.Shelfmanager = cfg.Shelfmanager
	cfg.IPMI.ApplyDefaults()
	cfg.Metrics.Addr = ":9100"
	cfg.HTTP.Addr = ":8910"

	rt, err := atcamon.NewRuntime(cfg, atcamon.WithGateway(simGateway{}))
	if err != nil {
		log.Fatalf("new runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("monitor exited: %v", err)
	}
}
