package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slaclab/smurf-atca-monitor/internal/adapters/registry"
	"github.com/slaclab/smurf-atca-monitor/internal/app/monitor"
)

// HealthSource exposes the monitor's cycle-health snapshot.
type HealthSource interface {
	Health() monitor.Health
}

// NewRouter builds the read-only HTTP surface: sensor listing, single-sensor
// lookup, and monitor status. Sensor paths contain slashes ("slot/2/Hot_Swap"),
// so the lookup route uses a wildcard rather than a path parameter.
func NewRouter(reg *registry.Memory, health HealthSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, health.Health())
	})

	r.Get("/registry", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reg.Snapshot())
	})

	r.Get("/registry/*", func(w http.ResponseWriter, req *http.Request) {
		path := chi.URLParam(req, "*")
		entry, ok := reg.Lookup(path)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "sensor not found",
				"path":  path,
			})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
