package registry

import (
	"database/sql"
	"fmt"

	"github.com/slaclab/smurf-atca-monitor/internal/domain"
	"github.com/slaclab/smurf-atca-monitor/internal/ports"
)

// Postgres mirrors the latest sensor values into a Postgres table, one row
// per sensor path. This is a current-state mirror for dashboards, not a
// historian: every update overwrites the row.
type Postgres struct {
	db    *sql.DB
	table string
}

func NewPostgres(db *sql.DB, table string) *Postgres {
	if table == "" {
		table = "atca_sensors"
	}
	return &Postgres{db: db, table: table}
}

func (p *Postgres) RegisterSensor(path string, kind domain.SensorKind, unit string) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (path, kind, unit) VALUES ($1,$2,$3) ON CONFLICT (path) DO UPDATE SET kind = $2, unit = $3",
		p.table)
	if _, err := p.db.Exec(q, path, string(kind), unit); err != nil {
		return fmt.Errorf("register %s: %w", path, err)
	}
	return nil
}

func (p *Postgres) UnregisterSensor(path string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE path = $1", p.table)
	if _, err := p.db.Exec(q, path); err != nil {
		return fmt.Errorf("unregister %s: %w", path, err)
	}
	return nil
}

func (p *Postgres) UpdateValue(path string, reading domain.Reading) error {
	q := fmt.Sprintf(
		"UPDATE %s SET value = $2, state = $3, taken_at = $4 WHERE path = $1",
		p.table)
	res, err := p.db.Exec(q, path, reading.Value, reading.State, reading.Taken)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s: not registered", path)
	}
	return nil
}

var _ ports.Registry = (*Postgres)(nil)
