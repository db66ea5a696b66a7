// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-token-signing"

func newTestManager(t *testing.T, ttl time.Duration) (*TokenManager, *Blacklist, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	bl, err := NewBlacklist(path)
	if err != nil {
		t.Fatal(err)
	}
	return NewTokenManager(testSecret, ttl, bl), bl, path
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)

	token, err := m.Issue("admin@admin.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	subject, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if subject != "admin@admin.com" {
		t.Errorf("subject = %q, want admin@admin.com", subject)
	}
}

func TestIssueUniqueTokens(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)

	a, err := m.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two tokens for the same subject are identical")
	}
}

func TestVerifyRejections(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)
	other := NewTokenManager("a-completely-different-secret", time.Hour, nil)

	valid, err := m.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := other.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}
	expiredManager, _, _ := newTestManager(t, -time.Minute)
	expired, err := expiredManager.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong signature", foreign},
		{"expired", expired},
		{"truncated", valid[:len(valid)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%s) err = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}

func TestRevokedTokenFailsVerify(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)

	token, err := m.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("Verify before revoke: %v", err)
	}

	if err := m.Revoke(token); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify after revoke err = %v, want ErrInvalidToken", err)
	}
}

func TestBlacklistPersistence(t *testing.T) {
	m, bl, path := newTestManager(t, time.Hour)

	token, err := m.Issue("admin@admin.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := bl.Revoke(token); err != nil {
		t.Fatal(err)
	}

	// A fresh blacklist over the same file sees the revocation.
	reloaded, err := NewBlacklist(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Contains(token) {
		t.Error("reloaded blacklist lost the revoked token")
	}
	if reloaded.Len() != 1 {
		t.Errorf("reloaded Len = %d, want 1", reloaded.Len())
	}
}

func TestBlacklistRevokeIdempotent(t *testing.T) {
	_, bl, path := newTestManager(t, time.Hour)

	for i := 0; i < 3; i++ {
		if err := bl.Revoke("repeated-token"); err != nil {
			t.Fatalf("Revoke #%d error: %v", i+1, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("file has %d lines, want 1: %q", len(lines), string(data))
	}
	if bl.Len() != 1 {
		t.Errorf("Len = %d, want 1", bl.Len())
	}
}

func TestBlacklistMissingFile(t *testing.T) {
	bl, err := NewBlacklist(filepath.Join(t.TempDir(), "nope", "blacklist.txt"))
	if err != nil {
		t.Fatalf("NewBlacklist error: %v", err)
	}
	if bl.Len() != 0 {
		t.Errorf("Len = %d, want 0", bl.Len())
	}
	// First revocation creates the parent directory and file.
	if err := bl.Revoke("some-token"); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
}

func TestBlacklistSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	if err := os.WriteFile(path, []byte("token-one\n\n  \ntoken-two\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	bl, err := NewBlacklist(path)
	if err != nil {
		t.Fatal(err)
	}
	if bl.Len() != 2 {
		t.Errorf("Len = %d, want 2", bl.Len())
	}
	if !bl.Contains("token-one") || !bl.Contains("token-two") {
		t.Error("loaded tokens missing")
	}
}

func TestAdminVerifier(t *testing.T) {
	v, err := NewAdminVerifier("admin@admin.com", "Admin123")
	if err != nil {
		t.Fatalf("NewAdminVerifier error: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     bool
	}{
		{"valid", "admin@admin.com", "Admin123", true},
		{"wrong password", "admin@admin.com", "admin123", false},
		{"wrong email", "other@admin.com", "Admin123", false},
		{"both wrong", "other@admin.com", "nope", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Verify(tt.email, tt.password); got != tt.want {
				t.Errorf("Verify = %v, want %v", got, tt.want)
			}
		})
	}
}
