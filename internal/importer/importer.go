// Package importer loads a fleet from disk: a metadata CSV describing each
// thermostat plus one interval CSV per thermostat with its hourly telemetry.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"thermostat_savings/internal/diag"
	"thermostat_savings/internal/model"
	"thermostat_savings/internal/store"
)

// Metadata CSV columns.
var metadataColumns = []string{
	"ct_identifier",
	"heat_type",
	"heat_stage",
	"cool_type",
	"cool_stage",
	"zipcode",
	"climate_zone",
	"interval_data_filename",
}

// Interval CSV columns. Empty cells are missing samples.
var intervalColumns = []string{
	"datetime",
	"indoor_temperature",
	"outdoor_temperature",
	"cool_runtime",
	"heat_runtime",
	"auxiliary_runtime",
	"emergency_runtime",
}

const datetimeLayout = "2006-01-02 15:04:05"

// Importer reads thermostat fleets from CSV files.
type Importer struct {
	dataDir string
	sink    diag.Sink
}

// New builds an importer resolving interval filenames against dataDir.
func New(dataDir string, sink diag.Sink) *Importer {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Importer{dataDir: dataDir, sink: sink}
}

// Load reads the metadata CSV and every interval file it references into a
// populated store. A malformed thermostat is logged and skipped; only a
// malformed metadata file aborts the load.
func (im *Importer) Load(metadataPath string) (*store.Store, error) {
	f, err := os.Open(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading metadata header: %w", err)
	}
	cols, err := columnIndex(header, metadataColumns)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", metadataPath, err)
	}

	st := store.New()
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("metadata %s line %d: %w", metadataPath, line, err)
		}

		t, err := im.loadThermostat(row, cols)
		if err != nil {
			im.sink.Warnw("skipping thermostat",
				"metadata_line", line, "error", err.Error())
			continue
		}
		st.Add(t)
	}

	im.sink.Infow("fleet loaded", "thermostats", st.Len())
	return st, nil
}

func (im *Importer) loadThermostat(row []string, cols map[string]int) (*model.Thermostat, error) {
	get := func(name string) string { return strings.TrimSpace(row[cols[name]]) }

	id := get("ct_identifier")
	filename := get("interval_data_filename")

	channels, err := im.readIntervals(filepath.Join(im.dataDir, filename))
	if err != nil {
		return nil, fmt.Errorf("thermostat %s: %w", id, err)
	}

	return model.NewThermostat(
		id,
		model.HeatType(get("heat_type")), model.Stage(get("heat_stage")),
		model.CoolType(get("cool_type")), model.Stage(get("cool_stage")),
		get("zipcode"), get("climate_zone"),
		channels["indoor_temperature"],
		channels["outdoor_temperature"],
		channels["cool_runtime"],
		channels["heat_runtime"],
		channels["auxiliary_runtime"],
		channels["emergency_runtime"],
	)
}

// readIntervals parses one interval CSV into hourly series keyed by column
// name. Rows may be sparse; hours without a row stay missing.
func (im *Importer) readIntervals(path string) (map[string]model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening interval data: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading interval header: %w", err)
	}
	cols, err := columnIndex(header, intervalColumns)
	if err != nil {
		return nil, fmt.Errorf("interval data %s: %w", path, err)
	}

	type sample struct {
		ts     time.Time
		values map[string]float64
	}
	var samples []sample
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("interval data %s line %d: %w", path, line, err)
		}

		ts, err := time.Parse(datetimeLayout, strings.TrimSpace(row[cols["datetime"]]))
		if err != nil {
			return nil, fmt.Errorf("interval data %s line %d: %w", path, line, err)
		}
		s := sample{ts: ts.Truncate(time.Hour), values: make(map[string]float64, 6)}
		for _, name := range intervalColumns[1:] {
			s.values[name] = parseCell(row[cols[name]])
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("interval data %s: no rows", path)
	}

	start, end := samples[0].ts, samples[0].ts
	for _, s := range samples[1:] {
		if s.ts.Before(start) {
			start = s.ts
		}
		if s.ts.After(end) {
			end = s.ts
		}
	}
	n := int(end.Sub(start)/time.Hour) + 1

	out := make(map[string]model.Series, 6)
	for _, name := range intervalColumns[1:] {
		values := make([]float64, n)
		for i := range values {
			values[i] = math.NaN()
		}
		for _, s := range samples {
			values[int(s.ts.Sub(start)/time.Hour)] = s.values[name]
		}
		series := model.NewSeries(start, values)
		if series.MissingCount() == n {
			series = model.EmptySeries()
		}
		out[name] = series
	}
	return out, nil
}

// parseCell converts one CSV cell to a float; blank or malformed cells are
// missing samples.
func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}
