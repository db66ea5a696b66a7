// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/epimapa/epimapa/internal/logging"
	"github.com/epimapa/epimapa/internal/models"
	"github.com/epimapa/epimapa/internal/validation"
)

// respondJSON sends v as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends the uniform error envelope. err, when non-nil, is logged
// but never leaked to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Err(err).
			Msg("API error")
	}
	respondJSON(w, status, models.NewErrorResponse(code, message))
}

// validateRequest runs struct validation and flattens failures into a single
// VALIDATION_ERROR message.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	return &models.APIError{
		Code:    models.CodeValidation,
		Message: verr.Error(),
	}
}

// getIntParam extracts an integer query parameter, falling back to def when
// absent or unparseable. Range enforcement happens in request structs.
func getIntParam(r *http.Request, key string, def int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}
