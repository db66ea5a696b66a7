// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package analytics

import (
	"fmt"
	"io"
	"strconv"
)

// csvHeader is the fixed export header. Fields are numeric or fixed-format
// codes, so no quoting or escaping is needed.
const csvHeader = "ANO,UBIGEO,CASOS,POBTOT,TIA\n"

// WriteCSV streams the aggregated rows as CSV. Rows are written in
// aggregation order; unlike the top-N ranking, the export deliberately
// applies no sort. Missing population or TIA values render as empty fields.
func WriteCSV(w io.Writer, year int, rows []Row) error {
	if _, err := io.WriteString(w, csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		line := fmt.Sprintf("%d,%s,%s,%s,%s\n",
			year,
			r.Ubigeo,
			formatNumber(r.Cases),
			formatNullable(r.Population),
			formatNullable(r.TIA),
		)
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}

// formatNumber renders a number in its shortest exact decimal form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}
