// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package dataset

import "strings"

// UbigeoLen is the fixed width of a district code.
const UbigeoLen = 6

// CaseRecord is one row of the case-count table. Numeric fields that could
// not be parsed from the source are nil; downstream aggregation depends on
// that missing-as-null semantic and must not treat it as an error.
type CaseRecord struct {
	Year       *int
	Ubigeo     string
	Diagnostic string
	Disease    string
	Cases      *float64
	Population *float64
	TIA        *float64
}

// DiseasePair is a distinct (diagnostic code, disease name) combination
// found in the case table.
type DiseasePair struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Bundle is the immutable product of a successful load: the full case table,
// the parsed boundary document, and the indexes derived from both. It is
// created once and never mutated; readers share it without locking.
type Bundle struct {
	// Records is the case table in source order.
	Records []CaseRecord

	// Geometry is the parsed district-boundary document.
	Geometry *FeatureCollection

	// DistrictNames maps a zero-padded district code to its display name.
	// Later boundary features overwrite earlier ones for duplicate codes.
	DistrictNames map[string]string

	// Diseases is the distinct (code, name) pairs, sorted by code then name.
	Diseases []DiseasePair

	// Years is the distinct valid years, sorted ascending.
	Years []int
}

// HasYear reports whether year appears in the bundle.
func (b *Bundle) HasYear(year int) bool {
	for _, y := range b.Years {
		if y == year {
			return true
		}
	}
	return false
}

// HasDiagnostic reports whether code is a known diagnostic code.
// The match is exact and case-sensitive.
func (b *Bundle) HasDiagnostic(code string) bool {
	for _, p := range b.Diseases {
		if p.Code == code {
			return true
		}
	}
	return false
}

// DistrictName returns the display name for a district code, or the empty
// string when the code is unknown.
func (b *Bundle) DistrictName(ubigeo string) string {
	return b.DistrictNames[ubigeo]
}

// PadUbigeo normalizes a district code to its fixed 6-character,
// zero-padded form. Codes may arrive as numeric or variable-width strings.
func PadUbigeo(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= UbigeoLen {
		return code
	}
	return strings.Repeat("0", UbigeoLen-len(code)) + code
}
