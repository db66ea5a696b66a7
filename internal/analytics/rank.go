// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package analytics

import (
	"errors"
	"sort"
	"strings"
)

// Ranking metrics accepted by NormalizeMetric.
const (
	MetricTIA        = "tia"
	MetricCases      = "casos"
	MetricPopulation = "pobtot"
)

// ErrUnknownMetric indicates a ranking metric outside the supported set.
var ErrUnknownMetric = errors.New("unknown ranking metric")

// RankedDistrict is one entry of a top-N ranking, carrying the resolved
// district display name alongside the aggregated metrics.
type RankedDistrict struct {
	Ubigeo     string   `json:"ubigeo"`
	District   string   `json:"district"`
	Cases      float64  `json:"casos"`
	Population *float64 `json:"pobtot"`
	TIA        *float64 `json:"tia"`
}

// NormalizeMetric canonicalizes a metric name. Matching is case-insensitive
// and accepts the English aliases for the column names.
func NormalizeMetric(metric string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case MetricTIA:
		return MetricTIA, nil
	case MetricCases, "cases":
		return MetricCases, nil
	case MetricPopulation, "population":
		return MetricPopulation, nil
	default:
		return "", ErrUnknownMetric
	}
}

// TopDistricts sorts the aggregated rows by the given canonical metric in
// descending order (missing values last), applies offset then limit, and
// resolves each district's display name from the index (empty string when
// unknown). The sort is stable so equal districts keep their aggregation
// order.
func TopDistricts(rows []Row, metric string, names map[string]string, limit, offset int) []RankedDistrict {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)

	key := func(r Row) *float64 {
		switch metric {
		case MetricCases:
			c := r.Cases
			return &c
		case MetricPopulation:
			return r.Population
		default:
			return r.TIA
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := key(sorted[i]), key(sorted[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})

	if offset >= len(sorted) {
		return []RankedDistrict{}
	}
	sorted = sorted[offset:]
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}

	out := make([]RankedDistrict, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, RankedDistrict{
			Ubigeo:     r.Ubigeo,
			District:   names[r.Ubigeo],
			Cases:      r.Cases,
			Population: r.Population,
			TIA:        r.TIA,
		})
	}
	return out
}
