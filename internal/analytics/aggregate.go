// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

// Package analytics derives per-district metrics from the loaded case table:
// filtering and aggregation, boundary-document enrichment, top-N ranking,
// and CSV export. Everything here is a pure in-memory transform over an
// immutable dataset.Bundle; results are recomputed per request and never
// cached.
package analytics

import (
	"github.com/epimapa/epimapa/internal/dataset"
)

// Row is the aggregate for one district within a (year, diagnostic) slice.
//
// Cases is always a number: missing case counts are excluded from the sum,
// and a district whose counts are all missing sums to zero. Population and
// TIA are nil when undefined — Population when no row in the group carries
// one, TIA additionally when the mean population is zero. The null
// propagates as-is into map properties, rankings, and export fields.
type Row struct {
	Ubigeo     string
	Cases      float64
	Population *float64
	TIA        *float64
}

// Aggregate filters the case table to rows matching year and diagnostic code
// exactly (case-sensitive), groups them by district code, sums case counts
// and averages population per group, and derives the incidence rate per 1000.
//
// Districts appear in the order they are first seen in the table. An empty
// result is not an error.
func Aggregate(records []dataset.CaseRecord, year int, code string) []Row {
	type group struct {
		cases    float64
		popSum   float64
		popCount int
	}

	groups := make(map[string]*group)
	var order []string

	for i := range records {
		r := &records[i]
		if r.Year == nil || *r.Year != year || r.Diagnostic != code {
			continue
		}
		g, ok := groups[r.Ubigeo]
		if !ok {
			g = &group{}
			groups[r.Ubigeo] = g
			order = append(order, r.Ubigeo)
		}
		if r.Cases != nil {
			g.cases += *r.Cases
		}
		if r.Population != nil {
			g.popSum += *r.Population
			g.popCount++
		}
	}

	rows := make([]Row, 0, len(order))
	for _, ub := range order {
		g := groups[ub]
		row := Row{Ubigeo: ub, Cases: g.cases}
		if g.popCount > 0 {
			mean := g.popSum / float64(g.popCount)
			row.Population = &mean
			if mean != 0 {
				tia := g.cases / mean * 1000
				row.TIA = &tia
			}
		}
		rows = append(rows, row)
	}
	return rows
}
