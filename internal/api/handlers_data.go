// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package api

import (
	"net/http"
	"strings"

	"github.com/epimapa/epimapa/internal/dataset"
)

// listRequest bounds the pagination parameters of the catalog endpoints.
type listRequest struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0"`
}

// Diseases lists the distinct disease catalog, sorted by code then name.
func (h *Handler) Diseases(w http.ResponseWriter, r *http.Request) {
	req := listRequest{
		Limit:  getIntParam(r, "limit", 100),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	b, ok := h.bundle(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, paginate(b.Diseases, req.Limit, req.Offset))
}

// Years lists the distinct years present in the dataset, ascending.
func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	b, ok := h.bundle(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, b.Years)
}

// DiseaseCodes lists the catalog filtered by an optional case-insensitive
// substring query over code and name. Filtering happens before pagination.
func (h *Handler) DiseaseCodes(w http.ResponseWriter, r *http.Request) {
	req := listRequest{
		Limit:  getIntParam(r, "limit", 100),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	b, ok := h.bundle(w, r)
	if !ok {
		return
	}

	items := b.Diseases
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		needle := strings.ToLower(q)
		filtered := make([]dataset.DiseasePair, 0, len(items))
		for _, d := range items {
			if strings.Contains(strings.ToLower(d.Code), needle) ||
				strings.Contains(strings.ToLower(d.Name), needle) {
				filtered = append(filtered, d)
			}
		}
		items = filtered
	}

	respondJSON(w, http.StatusOK, paginate(items, req.Limit, req.Offset))
}

// paginate applies offset then limit. The result is never nil so empty pages
// serialize as [] rather than null.
func paginate(items []dataset.DiseasePair, limit, offset int) []dataset.DiseasePair {
	if offset >= len(items) {
		return []dataset.DiseasePair{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
