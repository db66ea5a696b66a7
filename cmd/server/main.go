// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

// Command server runs the incidence API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epimapa/epimapa/internal/api"
	"github.com/epimapa/epimapa/internal/auth"
	"github.com/epimapa/epimapa/internal/config"
	"github.com/epimapa/epimapa/internal/dataset"
	"github.com/epimapa/epimapa/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("data_dir", cfg.Data.Dir).
		Msg("Starting epimapa")

	blacklist, err := auth.NewBlacklist(cfg.Security.BlacklistFile)
	if err != nil {
		return fmt.Errorf("init blacklist: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.Security.SecretKey, cfg.Security.TokenTTL(), blacklist)

	admin, err := auth.NewAdminVerifier(cfg.Security.AdminEmail, cfg.Security.AdminPassword)
	if err != nil {
		return fmt.Errorf("init admin verifier: %w", err)
	}

	loader := dataset.NewLoader(cfg.Data)
	if cfg.Data.Preload {
		if _, err := loader.Load(); err != nil {
			return fmt.Errorf("preload dataset: %w", err)
		}
	}

	handler := api.NewHandler(cfg, loader, tokens, admin)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
