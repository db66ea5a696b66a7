// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/epimapa/epimapa/internal/auth"
	"github.com/epimapa/epimapa/internal/config"
	"github.com/epimapa/epimapa/internal/dataset"
	"github.com/epimapa/epimapa/internal/logging"
	"github.com/epimapa/epimapa/internal/models"
)

// Handler carries the dependencies of every route.
type Handler struct {
	cfg    *config.Config
	loader *dataset.Loader
	tokens *auth.TokenManager
	admin  *auth.AdminVerifier
}

// NewHandler wires the route dependencies together.
func NewHandler(cfg *config.Config, loader *dataset.Loader, tokens *auth.TokenManager, admin *auth.AdminVerifier) *Handler {
	return &Handler{
		cfg:    cfg,
		loader: loader,
		tokens: tokens,
		admin:  admin,
	}
}

// bundle loads (or returns the cached) dataset. On failure it writes the
// DATA_UNAVAILABLE error and returns false.
func (h *Handler) bundle(w http.ResponseWriter, r *http.Request) (*dataset.Bundle, bool) {
	b, err := h.loader.Load()
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable,
			models.CodeDataUnavailable, "Dataset is not available", err)
		return nil, false
	}
	return b, true
}

// Health reports liveness. It deliberately does not touch the dataset so a
// broken data directory never fails the probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Login exchanges admin credentials for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest,
			models.CodeValidation, "Invalid request body", nil)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if !h.admin.Verify(req.Email, req.Password) {
		respondError(w, r, http.StatusUnauthorized,
			models.CodeAuthentication, "Incorrect email or password", nil)
		return
	}

	token, err := h.tokens.Issue(req.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError,
			models.CodeInternal, "Could not issue token", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("subject", req.Email).Msg("Token issued")
	respondJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
	})
}

// Logout revokes the exact token the request authenticated with.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.RawTokenFromContext(r.Context())
	if err := h.tokens.Revoke(token); err != nil {
		respondError(w, r, http.StatusInternalServerError,
			models.CodeInternal, "Could not revoke token", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("subject", auth.SubjectFromContext(r.Context())).
		Msg("Token revoked")
	respondJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}
