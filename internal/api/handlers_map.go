// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/epimapa/epimapa/internal/analytics"
	"github.com/epimapa/epimapa/internal/dataset"
	"github.com/epimapa/epimapa/internal/logging"
	"github.com/epimapa/epimapa/internal/models"
)

// selection is the validated (year, code) pair shared by the map, ranking and
// export endpoints.
type selection struct {
	year int
	code string
}

// resolveSelection parses and checks the year and code query parameters.
// Malformed input is a 400; a well-formed year or code the dataset has never
// seen is a 404. Writes the error response itself and reports ok=false.
func (h *Handler) resolveSelection(w http.ResponseWriter, r *http.Request, b *dataset.Bundle) (selection, bool) {
	yearParam := r.URL.Query().Get("year")
	if yearParam == "" {
		respondError(w, r, http.StatusBadRequest,
			models.CodeValidation, "year is required", nil)
		return selection{}, false
	}
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		respondError(w, r, http.StatusBadRequest,
			models.CodeValidation, "year must be an integer", nil)
		return selection{}, false
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, r, http.StatusBadRequest,
			models.CodeValidation, "code is required", nil)
		return selection{}, false
	}

	if !b.HasYear(year) {
		respondError(w, r, http.StatusNotFound,
			models.CodeNotFound, fmt.Sprintf("No data for year %d", year), nil)
		return selection{}, false
	}
	if !b.HasDiagnostic(code) {
		respondError(w, r, http.StatusNotFound,
			models.CodeNotFound, fmt.Sprintf("Unknown disease code %q", code), nil)
		return selection{}, false
	}

	return selection{year: year, code: code}, true
}

// MapGeoJSON returns the district boundaries with per-district CASOS, POBTOT
// and TIA merged into every feature's properties.
func (h *Handler) MapGeoJSON(w http.ResponseWriter, r *http.Request) {
	b, ok := h.bundle(w, r)
	if !ok {
		return
	}
	sel, ok := h.resolveSelection(w, r, b)
	if !ok {
		return
	}

	rows := analytics.Aggregate(b.Records, sel.year, sel.code)
	merged := analytics.MergeGeo(b.Geometry, rows)
	respondJSON(w, http.StatusOK, merged)
}

// topRequest bounds the ranking parameters.
type topRequest struct {
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`
}

// Top returns districts ranked descending by the requested metric.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	req := topRequest{
		Limit:  getIntParam(r, "limit", 10),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	metricParam := r.URL.Query().Get("metric")
	if metricParam == "" {
		metricParam = analytics.MetricTIA
	}
	metric, err := analytics.NormalizeMetric(metricParam)
	if errors.Is(err, analytics.ErrUnknownMetric) {
		respondError(w, r, http.StatusBadRequest,
			models.CodeValidation, "metric must be one of: tia, casos, pobtot", nil)
		return
	}

	b, ok := h.bundle(w, r)
	if !ok {
		return
	}
	sel, ok := h.resolveSelection(w, r, b)
	if !ok {
		return
	}

	rows := analytics.Aggregate(b.Records, sel.year, sel.code)
	ranked := analytics.TopDistricts(rows, metric, b.DistrictNames, req.Limit, req.Offset)
	respondJSON(w, http.StatusOK, ranked)
}

// Export streams the aggregated selection as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && !strings.EqualFold(format, "csv") {
		respondError(w, r, http.StatusBadRequest,
			models.CodeValidation, "format must be csv", nil)
		return
	}

	b, ok := h.bundle(w, r)
	if !ok {
		return
	}
	sel, ok := h.resolveSelection(w, r, b)
	if !ok {
		return
	}

	rows := analytics.Aggregate(b.Records, sel.year, sel.code)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=incidence_%d_%s.csv", sel.year, sel.code))
	w.WriteHeader(http.StatusOK)

	if err := analytics.WriteCSV(w, sel.year, rows); err != nil {
		// Headers already sent; all we can do is log.
		logging.Ctx(r.Context()).Error().Err(err).Msg("CSV export aborted")
	}
}
