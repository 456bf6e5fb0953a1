package atcamon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slaclab/smurf-atca-monitor/internal/adapters/httpapi"
	"github.com/slaclab/smurf-atca-monitor/internal/adapters/ipmitool"
	"github.com/slaclab/smurf-atca-monitor/internal/adapters/observability"
	"github.com/slaclab/smurf-atca-monitor/internal/adapters/registry"
	"github.com/slaclab/smurf-atca-monitor/internal/app/monitor"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	gateway       ports.Gateway
	mirrors       []ports.Registry
	observability ports.Observability
	clk           clock.Clock
}

// WithGateway injects a custom IPMI gateway (simulators, alternate transports).
func WithGateway(gw ports.Gateway) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.gateway = gw
	}
}

// WithMirror adds a registry mirror alongside any configured Postgres mirror.
func WithMirror(m ports.Registry) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.mirrors = append(o.mirrors, m)
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithClock overrides the scheduler clock, mainly for tests.
func WithClock(clk clock.Clock) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.clk = clk
	}
}

// Runtime wires the IPMI gateway, sensor registry, poll scheduler and HTTP
// surfaces together and exposes simple lifecycle hooks for embedding the
// monitor inside any Go service.
type Runtime struct {
	cfg       *Config
	obs       ports.Observability
	scheduler *monitor.Scheduler
	store     *registry.Memory
	db        *sql.DB

	metricsSrv *http.Server
	apiSrv     *http.Server
}

// NewRuntime bootstraps the default adapters: ipmitool gateway, in-memory
// registry, optional Postgres mirror, Prometheus observability. RuntimeOption
// values override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	gw := overrides.gateway
	if gw == nil {
		var err error
		gw, err = ipmitool.NewGateway(cfg.IPMI)
		if err != nil {
			return nil, err
		}
	}

	store := registry.NewMemory()
	var reg ports.Registry = store
	mirrors := overrides.mirrors

	var db *sql.DB
	if cfg.Postgres.ConnString != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, registry.NewPostgres(db, cfg.Postgres.Table))
	}
	if len(mirrors) > 0 {
		reg = registry.NewTee(store, obs, mirrors...)
	}

	var disc monitor.Discovery
	switch cfg.MonitorMode() {
	case monitor.ModeDynamic:
		disc = monitor.NewDynamicDiscovery(gw)
	default:
		disc = monitor.NewStaticDiscovery(cfg.StaticTable())
	}

	sched, err := monitor.NewScheduler(monitor.Options{
		Gateway:       gw,
		Registry:      reg,
		Observability: obs,
		Discovery:     disc,
		Clock:         overrides.clk,
		Interval:      cfg.PollInterval,
		Slots:         cfg.IPMI.Slots(),
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	return &Runtime{
		cfg:       cfg,
		obs:       obs,
		scheduler: sched,
		store:     store,
		db:        db,
	}, nil
}

// Scheduler exposes the underlying poll scheduler, mainly for status queries.
func (r *Runtime) Scheduler() *monitor.Scheduler { return r.scheduler }

// Registry exposes the in-memory latest-value store.
func (r *Runtime) Registry() *registry.Memory { return r.store }

// Start launches the poll scheduler and both HTTP servers. It returns
// immediately; call Run to block on a context instead. The context bounds the
// startup discovery pass only.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if err := r.scheduler.Start(ctx); err != nil {
		return err
	}

	r.startMetrics()
	r.startAPI()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled,
// then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the scheduler, both HTTP servers, and the mirror DB.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if err := r.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, srv := range []*http.Server{r.apiSrv, r.metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}

func (r *Runtime) startAPI() {
	r.apiSrv = &http.Server{
		Addr:    r.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(r.store, r.scheduler),
	}

	go func() {
		if err := r.apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api server exited: %v", err)
		}
	}()
}
