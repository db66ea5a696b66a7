// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/epimapa/epimapa/internal/logging"
	"github.com/epimapa/epimapa/internal/metrics"
	"github.com/epimapa/epimapa/internal/models"
)

type contextKey string

const (
	subjectKey  contextKey = "auth_subject"
	rawTokenKey contextKey = "auth_raw_token"
)

// SubjectFromContext returns the authenticated subject stored by
// Authenticate, or "" if the request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}

// RawTokenFromContext returns the verified bearer token string for the
// request. Logout uses it to revoke the exact credential presented.
func RawTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(rawTokenKey).(string)
	return s
}

// Authenticate rejects requests without a valid bearer token. The 401 body is
// the same for a missing header, a malformed header, a bad signature, an
// expired token and a revoked token.
func (m *TokenManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r.Header.Get("Authorization"))
		if token == "" {
			unauthorized(w, r, "missing bearer token")
			return
		}

		subject, err := m.Verify(token)
		if err != nil {
			unauthorized(w, r, "token rejected")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, subject)
		ctx = context.WithValue(ctx, rawTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearer pulls the token out of an Authorization header. The scheme
// comparison is case-insensitive per RFC 7235.
func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.AuthFailuresTotal.Inc()
	logging.Ctx(r.Context()).Debug().
		Str("path", r.URL.Path).
		Str("reason", reason).
		Msg("Request rejected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.NewErrorResponse(
		models.CodeAuthentication, "Could not validate credentials"))
}
