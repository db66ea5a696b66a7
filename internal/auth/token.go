// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/epimapa/epimapa/internal/metrics"
)

// ErrInvalidToken is returned by Verify for every failure mode: bad
// signature, expiry, malformed token, missing subject, or revocation. A
// single error keeps the response indistinguishable for callers probing the
// API.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager issues and verifies HS256 bearer tokens. Every issued token
// carries sub, iat, exp and a random jti so two tokens minted in the same
// second for the same subject are still distinct strings.
type TokenManager struct {
	secret    []byte
	ttl       time.Duration
	blacklist *Blacklist
}

// NewTokenManager builds a manager signing with secret and issuing tokens
// valid for ttl. Verification consults the blacklist before anything else.
func NewTokenManager(secret string, ttl time.Duration, blacklist *Blacklist) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		ttl:       ttl,
		blacklist: blacklist,
	}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a signed token for subject.
func (m *TokenManager) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	metrics.TokensIssuedTotal.Inc()
	return signed, nil
}

// Verify validates tokenString and returns its subject. Revoked tokens fail
// before signature validation so a blacklisted token is rejected even if the
// signing secret has since rotated.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	if m.blacklist != nil && m.blacklist.Contains(tokenString) {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Revoke adds tokenString to the blacklist. The token string is recorded
// as-is; no signature check happens first, matching the logout contract where
// the middleware has already verified the credential.
func (m *TokenManager) Revoke(tokenString string) error {
	return m.blacklist.Revoke(tokenString)
}
