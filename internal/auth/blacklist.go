// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

// Package auth implements the single-admin bearer-token service: token
// issuance and verification, the durable revocation blacklist, and the
// authentication middleware.
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/epimapa/epimapa/internal/logging"
	"github.com/epimapa/epimapa/internal/metrics"
)

// Blacklist is the set of revoked token strings. The in-memory set is
// authoritative for runtime checks; every revocation is also appended to a
// plain text log file, one token per line, so revocations survive restarts.
//
// Entries are never pruned, even after the underlying token expires: the log
// only grows. Revoking an already-revoked token is a silent no-op and writes
// nothing.
type Blacklist struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
	path   string
}

// NewBlacklist loads the revocation log at path into memory. A missing file
// is an empty blacklist; it is created on the first revocation.
func NewBlacklist(path string) (*Blacklist, error) {
	b := &Blacklist{
		tokens: make(map[string]struct{}),
		path:   path,
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open blacklist %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token != "" {
			b.tokens[token] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blacklist %s: %w", path, err)
	}

	metrics.BlacklistSize.Set(float64(len(b.tokens)))
	if len(b.tokens) > 0 {
		logging.Info().Int("entries", len(b.tokens)).Msg("Token blacklist loaded")
	}
	return b, nil
}

// Contains reports whether the token has been revoked.
func (b *Blacklist) Contains(token string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.tokens[token]
	return ok
}

// Revoke adds the token to the set and appends it to the log file.
// Idempotent: a second revocation of the same token does nothing. The file
// append happens under the lock so concurrent revocations cannot interleave
// lines.
func (b *Blacklist) Revoke(token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tokens[token]; ok {
		return nil
	}

	if err := b.appendLine(token); err != nil {
		return err
	}
	b.tokens[token] = struct{}{}

	metrics.TokensRevokedTotal.Inc()
	metrics.BlacklistSize.Set(float64(len(b.tokens)))
	return nil
}

// Len returns the number of revoked tokens held in memory.
func (b *Blacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tokens)
}

// appendLine appends one token to the log, creating the file and its parent
// directory if needed. Must be called with mu held.
func (b *Blacklist) appendLine(token string) error {
	if dir := filepath.Dir(b.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create blacklist dir %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open blacklist %s: %w", b.path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(token + "\n"); err != nil {
		return fmt.Errorf("append blacklist %s: %w", b.path, err)
	}
	return nil
}
