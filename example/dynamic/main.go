// Runs the monitor in dynamic mode against a real shelf manager, enumerating
// whatever sensors the occupied carriers expose at startup.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slaclab/smurf-atca-monitor"
)

func main() {
	shm := os.Getenv("ATCA_SHELFMANAGER")
	if shm == "" {
		log.Fatal("set ATCA_SHELFMANAGER to the shelf manager hostname")
	}

	cfg := &atcamon.Config{
		Shelfmanager: shm,
		Mode:         string(atcamon.ModeDynamic),
		PollInterval: 30 * time.Second,
	}
	cfg.IPMI.Shelfmanager = shm
	cfg.IPMI.ApplyDefaults()
	cfg.Metrics.Addr = ":9100"
	cfg.HTTP.Addr = ":8910"

	rt, err := atcamon.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("new runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("monitor exited: %v", err)
	}
}
