// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/epimapa/epimapa/internal/config"
	"github.com/epimapa/epimapa/internal/logging"
	"github.com/epimapa/epimapa/internal/metrics"
)

// Sentinel errors for load failures.
var (
	// ErrSourceMissing indicates a data file is absent at its configured path.
	ErrSourceMissing = errors.New("data source file missing")

	// ErrSchema indicates the case table is missing required columns.
	ErrSchema = errors.New("case table schema invalid")
)

// requiredColumns are the case-table columns the loader refuses to run without.
var requiredColumns = []string{"ANO", "UBIGEO", "DIAGNOSTIC", "CASOS", "POBTOT", "TIA", "ENFERMEDAD"}

// Loader builds the process-wide Bundle on demand.
//
// Load is idempotent: the first successful call performs all file I/O and
// validation, every later call returns the same cached *Bundle. Concurrent
// first calls share one in-flight build via singleflight. A failed build is
// not cached; every waiter receives the error and the next call retries.
type Loader struct {
	cfg    config.DataConfig
	bundle atomic.Pointer[Bundle]
	group  singleflight.Group
}

// NewLoader creates a loader for the configured data sources.
// No I/O happens until the first Load call.
func NewLoader(cfg config.DataConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Load returns the cached bundle, building it on first use.
func (l *Loader) Load() (*Bundle, error) {
	if b := l.bundle.Load(); b != nil {
		return b, nil
	}

	v, err, _ := l.group.Do("bundle", func() (any, error) {
		// Re-check under the group: a racing call may have finished the build.
		if b := l.bundle.Load(); b != nil {
			return b, nil
		}
		b, err := l.build()
		if err != nil {
			return nil, err
		}
		l.bundle.Store(b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// build performs the one-time load: CSV parse, GeoJSON parse, and index
// derivation.
func (l *Loader) build() (*Bundle, error) {
	start := time.Now()

	casesPath := filepath.Join(l.cfg.Dir, l.cfg.CasesFile)
	geoPath := filepath.Join(l.cfg.Dir, l.cfg.GeoJSONFile)

	if _, err := os.Stat(casesPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, casesPath)
	}
	if _, err := os.Stat(geoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, geoPath)
	}

	records, err := l.readCases(casesPath)
	if err != nil {
		return nil, err
	}

	geoFile, err := os.Open(geoPath)
	if err != nil {
		return nil, fmt.Errorf("open geojson %s: %w", geoPath, err)
	}
	defer func() { _ = geoFile.Close() }()

	fc, err := ParseFeatureCollection(geoFile)
	if err != nil {
		return nil, fmt.Errorf("geojson %s: %w", geoPath, err)
	}

	b := &Bundle{
		Records:       records,
		Geometry:      fc,
		DistrictNames: buildNameIndex(fc),
		Diseases:      deriveDiseases(records),
		Years:         deriveYears(records),
	}

	metrics.RecordDatasetLoad(len(records), time.Since(start))
	logging.Info().
		Int("records", len(records)).
		Int("features", len(fc.Features)).
		Int("diseases", len(b.Diseases)).
		Int("years", len(b.Years)).
		Dur("elapsed", time.Since(start)).
		Msg("Dataset loaded")

	return b, nil
}

// readCases parses the case-count CSV and validates its schema.
func (l *Loader) readCases(path string) ([]CaseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cases %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrSchema, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing columns %v", ErrSchema, missing)
	}

	var records []CaseRecord
	for {
		row, err := reader.Read()
		if err != nil {
			break // io.EOF or a malformed trailing line ends the table
		}
		records = append(records, CaseRecord{
			Year:       parseYear(field(row, cols["ANO"])),
			Ubigeo:     PadUbigeo(field(row, cols["UBIGEO"])),
			Diagnostic: strings.TrimSpace(field(row, cols["DIAGNOSTIC"])),
			Disease:    strings.TrimSpace(field(row, cols["ENFERMEDAD"])),
			Cases:      parseFloat(field(row, cols["CASOS"])),
			Population: parseFloat(field(row, cols["POBTOT"])),
			TIA:        parseFloat(field(row, cols["TIA"])),
		})
	}

	return records, nil
}

// field returns row[i] or "" when the row is too short.
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseFloat coerces a cell to a number. Unparseable values become nil, never
// an error: aggregation depends on the missing-as-null semantic.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseYear coerces a cell to an integer year, truncating any fractional
// part. Unparseable values become nil.
func parseYear(s string) *int {
	v := parseFloat(s)
	if v == nil {
		return nil
	}
	y := int(*v)
	return &y
}

// buildNameIndex maps every feature's district code to its name.
// Later features overwrite earlier ones for duplicate codes.
func buildNameIndex(fc *FeatureCollection) map[string]string {
	names := make(map[string]string, len(fc.Features))
	for i := range fc.Features {
		ub := fc.Features[i].Ubigeo()
		if ub == "" {
			continue
		}
		names[ub] = fc.Features[i].DistrictName()
	}
	return names
}

// deriveDiseases extracts the distinct (code, name) pairs, dropping rows
// where either field is absent, sorted by code then name.
func deriveDiseases(records []CaseRecord) []DiseasePair {
	seen := make(map[DiseasePair]struct{})
	var pairs []DiseasePair
	for _, r := range records {
		if r.Diagnostic == "" || r.Disease == "" {
			continue
		}
		p := DiseasePair{Code: r.Diagnostic, Name: r.Disease}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Code != pairs[j].Code {
			return pairs[i].Code < pairs[j].Code
		}
		return pairs[i].Name < pairs[j].Name
	})
	return pairs
}

// deriveYears extracts the distinct valid years, sorted ascending.
func deriveYears(records []CaseRecord) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, r := range records {
		if r.Year == nil {
			continue
		}
		if _, ok := seen[*r.Year]; ok {
			continue
		}
		seen[*r.Year] = struct{}{}
		years = append(years, *r.Year)
	}
	sort.Ints(years)
	return years
}
