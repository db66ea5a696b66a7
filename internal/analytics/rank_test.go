// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package analytics

import (
	"errors"
	"testing"
)

func TestNormalizeMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"tia", MetricTIA, false},
		{"TIA", MetricTIA, false},
		{"casos", MetricCases, false},
		{"cases", MetricCases, false},
		{"pobtot", MetricPopulation, false},
		{"Population", MetricPopulation, false},
		{" tia ", MetricTIA, false},
		{"deaths", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeMetric(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMetric) {
				t.Errorf("NormalizeMetric(%q) err = %v, want ErrUnknownMetric", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeMetric(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeMetric(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func rankFixture() []Row {
	return []Row{
		{Ubigeo: "160101", Cases: 30, Population: floatPtr(2000), TIA: floatPtr(15)},
		{Ubigeo: "160102", Cases: 50, Population: floatPtr(1000), TIA: floatPtr(50)},
		{Ubigeo: "160103", Cases: 8, Population: nil, TIA: nil},
	}
}

func TestTopDistrictsOrdering(t *testing.T) {
	names := map[string]string{"160101": "Iquitos", "160102": "Punchana"}

	ranked := TopDistricts(rankFixture(), MetricTIA, names, 10, 0)
	if len(ranked) != 3 {
		t.Fatalf("ranked = %d, want 3", len(ranked))
	}

	// Descending TIA with the nil-TIA district last.
	wantOrder := []string{"160102", "160101", "160103"}
	for i, want := range wantOrder {
		if ranked[i].Ubigeo != want {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Ubigeo, want)
		}
	}

	if ranked[0].District != "Punchana" {
		t.Errorf("District = %q, want Punchana", ranked[0].District)
	}
	if ranked[2].District != "" {
		t.Errorf("unknown district name = %q, want empty", ranked[2].District)
	}
}

func TestTopDistrictsByCases(t *testing.T) {
	ranked := TopDistricts(rankFixture(), MetricCases, nil, 10, 0)
	wantOrder := []string{"160102", "160101", "160103"}
	for i, want := range wantOrder {
		if ranked[i].Ubigeo != want {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Ubigeo, want)
		}
	}
}

func TestTopDistrictsPagination(t *testing.T) {
	rows := rankFixture()

	t.Run("limit", func(t *testing.T) {
		ranked := TopDistricts(rows, MetricTIA, nil, 1, 0)
		if len(ranked) != 1 || ranked[0].Ubigeo != "160102" {
			t.Errorf("ranked = %+v, want only 160102", ranked)
		}
	})

	t.Run("offset", func(t *testing.T) {
		ranked := TopDistricts(rows, MetricTIA, nil, 1, 1)
		if len(ranked) != 1 || ranked[0].Ubigeo != "160101" {
			t.Errorf("ranked = %+v, want only 160101", ranked)
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		ranked := TopDistricts(rows, MetricTIA, nil, 10, 99)
		if len(ranked) != 0 {
			t.Errorf("ranked = %d rows, want 0", len(ranked))
		}
	})
}

func TestTopDistrictsDoesNotMutateInput(t *testing.T) {
	rows := rankFixture()
	_ = TopDistricts(rows, MetricTIA, nil, 10, 0)
	if rows[0].Ubigeo != "160101" {
		t.Error("input slice was reordered")
	}
}
