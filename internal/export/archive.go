package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"thermostat_savings/internal/cert"
	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/stats"
)

// Archive persists pipeline runs in a sqlite database so successive runs
// over a growing fleet remain comparable.
type Archive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	thermostats INTEGER NOT NULL,
	records     INTEGER NOT NULL,
	failures    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS metric_records (
	run_id             TEXT NOT NULL REFERENCES runs(id),
	ct_identifier      TEXT NOT NULL,
	heating_or_cooling TEXT NOT NULL,
	exclusion_reason   TEXT NOT NULL,
	n_core_days        INTEGER NOT NULL,
	balance_point      REAL,
	alpha              REAL,
	percent_savings    REAL
);
CREATE TABLE IF NOT EXISTS summaries (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	season          TEXT NOT NULL,
	equipment_class TEXT NOT NULL,
	climate_zone    TEXT NOT NULL,
	n_input         INTEGER NOT NULL,
	n_included      INTEGER NOT NULL,
	n_excluded      INTEGER NOT NULL,
	savings_mean    REAL,
	savings_median  REAL
);
CREATE TABLE IF NOT EXISTS certifications (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	product_id       TEXT NOT NULL,
	equipment_class  TEXT NOT NULL,
	season           TEXT NOT NULL,
	percentile       INTEGER NOT NULL,
	min_savings      REAL NOT NULL,
	observed_savings REAL,
	passed           INTEGER NOT NULL
);
`

// OpenArchive opens (creating if needed) the archive at path and applies
// the schema.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating archive %s: %w", path, err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error { return a.db.Close() }

// Run is one archived pipeline execution.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Thermostats int
	Records     int
	Failures    int
}

// SaveRun stores one run with its records, summaries and optional
// certification in a single transaction.
func (a *Archive) SaveRun(
	ctx context.Context,
	run Run,
	records []metrics.Record,
	summaries []stats.Summary,
	certification *cert.Certification,
) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, thermostats, records, failures) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339), run.Thermostats, run.Records, run.Failures)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for i := range records {
		r := &records[i]
		var bp, alpha, savings interface{}
		if r.Metrics != nil {
			bp = r.Metrics.BalancePoint
			alpha = r.Metrics.Alpha
		}
		if s := r.PercentSavings(); s != nil {
			savings = *s
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO metric_records
			 (run_id, ct_identifier, heating_or_cooling, exclusion_reason, n_core_days, balance_point, alpha, percent_savings)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.ThermostatID, r.SeasonLabel, string(r.Exclusion), r.NCoreDays, bp, alpha, savings)
		if err != nil {
			return fmt.Errorf("inserting record for %s: %w", r.ThermostatID, err)
		}
	}

	for _, s := range summaries {
		var mean, median interface{}
		if s.IncludedCount > 0 {
			mean = s.PercentSavings.Mean
			median = s.PercentSavings.P50
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO summaries
			 (run_id, season, equipment_class, climate_zone, n_input, n_included, n_excluded, savings_mean, savings_median)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, string(s.SeasonKind), s.EquipmentClass, s.ClimateZone,
			s.InputCount, s.IncludedCount, s.ExcludedCount, mean, median)
		if err != nil {
			return fmt.Errorf("inserting summary: %w", err)
		}
	}

	if certification != nil {
		for _, r := range certification.Results {
			var observed interface{}
			if r.Value != nil {
				observed = *r.Value
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO certifications
				 (run_id, product_id, equipment_class, season, percentile, min_savings, observed_savings, passed)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, certification.ProductID, r.Threshold.EquipmentClass,
				string(r.Threshold.SeasonKind), r.Threshold.Percentile, r.Threshold.MinSavings,
				observed, r.Passed)
			if err != nil {
				return fmt.Errorf("inserting certification result: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Runs lists archived runs, newest first.
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, created_at, thermostats, records, failures FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Thermostats, &r.Records, &r.Failures); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
