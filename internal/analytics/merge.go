// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package analytics

import (
	"github.com/epimapa/epimapa/internal/dataset"
)

// Property keys attached to every merged feature.
const (
	propCases      = "CASOS"
	propPopulation = "POBTOT"
	propTIA        = "TIA"
)

// MergeGeo deep-copies the boundary document and annotates every feature
// with the aggregated metrics for its district. Features without a matching
// row get explicit nulls, so every output feature carries all three keys and
// downstream consumers see a uniform schema. Neither input is mutated.
func MergeGeo(fc *dataset.FeatureCollection, rows []Row) *dataset.FeatureCollection {
	byUbigeo := make(map[string]Row, len(rows))
	for _, r := range rows {
		byUbigeo[r.Ubigeo] = r
	}

	merged := fc.Clone()
	for i := range merged.Features {
		f := &merged.Features[i]
		if f.Properties == nil {
			f.Properties = make(map[string]any, 3)
		}
		row, ok := byUbigeo[f.Ubigeo()]
		if !ok {
			f.Properties[propCases] = nil
			f.Properties[propPopulation] = nil
			f.Properties[propTIA] = nil
			continue
		}
		f.Properties[propCases] = row.Cases
		f.Properties[propPopulation] = nullableNumber(row.Population)
		f.Properties[propTIA] = nullableNumber(row.TIA)
	}
	return merged
}

// nullableNumber unwraps an optional metric so missing values serialize as
// JSON null rather than a typed nil pointer.
func nullableNumber(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
