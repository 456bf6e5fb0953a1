package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slaclab/smurf-atca-monitor/pkg/atcamon"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "watch":
		err = watchCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("atca-monitor %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to monitor configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := atcamon.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := atcamon.NewRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := atcamon.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s ok: shelfmanager=%s mode=%s poll_interval=%s\n",
		*cfgPath, cfg.IPMI.Shelfmanager, cfg.Mode, cfg.PollInterval)
	return nil
}

func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	url := fs.String("url", "http://localhost:8910/status", "Monitor status endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printStatus(*url); err != nil {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		}
	}
}

func printStatus(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var h atcamon.Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return err
	}

	fmt.Printf("[%s] state=%s mode=%s sensors=%d occupied=%v attempted=%d failed=%d sweep=%.2fs\n",
		time.Now().Format(time.RFC3339),
		h.State, h.Mode, h.Sensors, h.OccupiedSlots,
		h.Attempted, h.ReadFailures, h.SweepSeconds)
	return nil
}

func printUsage() {
	fmt.Printf(`ATCA crate monitor

Usage:
  atca-monitor <command> [flags]

Commands:
  run        Start the monitor using the provided config
  validate   Load and validate a config file without starting the monitor
  watch      Poll the status endpoint and print live cycle health

Examples:
  atca-monitor run -config ./config.yaml
  atca-monitor validate -config ./config.yaml
  atca-monitor watch -url http://localhost:8910/status -interval 5s
`)
}
