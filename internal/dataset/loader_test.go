// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/epimapa/epimapa/internal/config"
)

const fixtureCSV = `ANO,UBIGEO,CASOS,POBTOT,TIA,DIAGNOSTIC,ENFERMEDAD
2025,160101,10,1000,10.0,B50,Malaria
2025,160102,30,2000,15.0,B50,Malaria
2024,160101,5,1000,5.0,A90,Dengue
2025.0,160103,n/a,,x,B50,Malaria
`

const fixtureGeoJSON = `{
  "type": "FeatureCollection",
  "name": "distritos",
  "features": [
    {"type": "Feature", "properties": {"UBIGEO": "160101", "NOMBDIST": "Iquitos"},
     "geometry": {"type": "Point", "coordinates": [-73.25, -3.75]}},
    {"type": "Feature", "properties": {"UBIGEO": 160102, "NOMBDIST": "Punchana"},
     "geometry": {"type": "Point", "coordinates": [-73.24, -3.72]}},
    {"type": "Feature", "properties": {"UBIGEO": "160103", "NOMBDIST": "Belen"},
     "geometry": {"type": "Point", "coordinates": [-73.26, -3.77]}}
  ]
}`

// writeFixtures materializes a data directory and returns its DataConfig.
func writeFixtures(t *testing.T, csvBody, geoBody string) config.DataConfig {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cases.csv"), []byte(csvBody), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "districts.geojson"), []byte(geoBody), 0o600); err != nil {
		t.Fatal(err)
	}
	return config.DataConfig{
		Dir:         dir,
		CasesFile:   "cases.csv",
		GeoJSONFile: "districts.geojson",
	}
}

func TestLoaderLoad(t *testing.T) {
	loader := NewLoader(writeFixtures(t, fixtureCSV, fixtureGeoJSON))

	b, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(b.Records) != 4 {
		t.Errorf("records = %d, want 4", len(b.Records))
	}
	if got := len(b.Geometry.Features); got != 3 {
		t.Errorf("features = %d, want 3", got)
	}

	wantYears := []int{2024, 2025}
	if !reflect.DeepEqual(b.Years, wantYears) {
		t.Errorf("Years = %v, want %v", b.Years, wantYears)
	}

	wantDiseases := []DiseasePair{
		{Code: "A90", Name: "Dengue"},
		{Code: "B50", Name: "Malaria"},
	}
	if !reflect.DeepEqual(b.Diseases, wantDiseases) {
		t.Errorf("Diseases = %v, want %v", b.Diseases, wantDiseases)
	}

	if got := b.DistrictName("160102"); got != "Punchana" {
		t.Errorf("DistrictName(160102) = %q, want Punchana", got)
	}
	if got := b.DistrictName("999999"); got != "" {
		t.Errorf("DistrictName(unknown) = %q, want empty", got)
	}
}

func TestLoaderLoadOnce(t *testing.T) {
	loader := NewLoader(writeFixtures(t, fixtureCSV, fixtureGeoJSON))

	first, err := loader.Load()
	if err != nil {
		t.Fatalf("first Load() error: %v", err)
	}
	second, err := loader.Load()
	if err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	if first != second {
		t.Error("Load() returned different bundle pointers")
	}
}

func TestLoaderConcurrentLoad(t *testing.T) {
	loader := NewLoader(writeFixtures(t, fixtureCSV, fixtureGeoJSON))

	const n = 16
	bundles := make([]*Bundle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := loader.Load()
			if err != nil {
				t.Errorf("Load() error: %v", err)
				return
			}
			bundles[i] = b
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if bundles[i] != bundles[0] {
			t.Fatal("concurrent Load() produced distinct bundles")
		}
	}
}

func TestLoaderMissingSources(t *testing.T) {
	cfg := writeFixtures(t, fixtureCSV, fixtureGeoJSON)

	t.Run("missing csv", func(t *testing.T) {
		c := cfg
		c.CasesFile = "absent.csv"
		if _, err := NewLoader(c).Load(); !errors.Is(err, ErrSourceMissing) {
			t.Errorf("err = %v, want ErrSourceMissing", err)
		}
	})

	t.Run("missing geojson", func(t *testing.T) {
		c := cfg
		c.GeoJSONFile = "absent.geojson"
		if _, err := NewLoader(c).Load(); !errors.Is(err, ErrSourceMissing) {
			t.Errorf("err = %v, want ErrSourceMissing", err)
		}
	})
}

func TestLoaderFailureNotCached(t *testing.T) {
	cfg := writeFixtures(t, fixtureCSV, fixtureGeoJSON)
	broken := cfg
	broken.CasesFile = "absent.csv"

	loader := NewLoader(broken)
	if _, err := loader.Load(); !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("err = %v, want ErrSourceMissing", err)
	}

	// Same loader pointed at a now-present file must retry, not replay the
	// failure.
	src := filepath.Join(cfg.Dir, cfg.CasesFile)
	dst := filepath.Join(broken.Dir, broken.CasesFile)
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load() after repair error: %v", err)
	}
}

func TestLoaderMissingColumns(t *testing.T) {
	csvBody := "ANO,UBIGEO,CASOS\n2025,160101,10\n"
	loader := NewLoader(writeFixtures(t, csvBody, fixtureGeoJSON))

	_, err := loader.Load()
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
	for _, col := range []string{"DIAGNOSTIC", "ENFERMEDAD", "POBTOT", "TIA"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not name missing column %s", err, col)
		}
	}
}

func TestLoaderCoercion(t *testing.T) {
	loader := NewLoader(writeFixtures(t, fixtureCSV, fixtureGeoJSON))
	b, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Row 4: float year truncated, unparseable/empty numerics nil.
	r := b.Records[3]
	if r.Year == nil || *r.Year != 2025 {
		t.Errorf("Year = %v, want 2025", r.Year)
	}
	if r.Cases != nil {
		t.Errorf("Cases = %v, want nil", *r.Cases)
	}
	if r.Population != nil {
		t.Errorf("Population = %v, want nil", *r.Population)
	}
	if r.TIA != nil {
		t.Errorf("TIA = %v, want nil", *r.TIA)
	}
	if r.Ubigeo != "160103" {
		t.Errorf("Ubigeo = %q, want 160103", r.Ubigeo)
	}
}

func TestLoaderNameIndexLastWins(t *testing.T) {
	geo := `{"type":"FeatureCollection","features":[
      {"type":"Feature","properties":{"UBIGEO":"160101","NOMBDIST":"Old"},"geometry":null},
      {"type":"Feature","properties":{"NOMBDIST":"NoCode"},"geometry":null},
      {"type":"Feature","properties":{"UBIGEO":"160101","NOMBDIST":"New"},"geometry":null}
    ]}`
	loader := NewLoader(writeFixtures(t, fixtureCSV, geo))

	b, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := b.DistrictName("160101"); got != "New" {
		t.Errorf("DistrictName = %q, want New", got)
	}
	if len(b.DistrictNames) != 1 {
		t.Errorf("index size = %d, want 1", len(b.DistrictNames))
	}
}

func TestPadUbigeo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "000001"},
		{"160101", "160101"},
		{" 903 ", "000903"},
		{"1601011", "1601011"},
		{"", "000000"},
	}
	for _, tt := range tests {
		if got := PadUbigeo(tt.in); got != tt.want {
			t.Errorf("PadUbigeo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
