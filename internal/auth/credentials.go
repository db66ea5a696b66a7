// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminVerifier checks login credentials against the single configured admin
// account. The password is bcrypt-hashed once at construction so the
// plaintext never sits in the verifier, and both email and password checks
// run on every attempt to keep timing uniform.
type AdminVerifier struct {
	email        string
	passwordHash []byte
}

// NewAdminVerifier hashes the configured password and returns a verifier.
func NewAdminVerifier(email, password string) (*AdminVerifier, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AdminVerifier{email: email, passwordHash: hash}, nil
}

// Verify reports whether email/password match the admin account. It does not
// reveal which of the two was wrong.
func (v *AdminVerifier) Verify(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(v.email)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil
	return emailOK && passwordOK
}
