// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

// Package api provides HTTP routing and handlers using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/epimapa/epimapa/internal/config"
	"github.com/epimapa/epimapa/internal/middleware"
)

// NewRouter assembles the full route tree.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.PrometheusMetrics)

	if !cfg.Security.RateLimitDisabled {
		r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
	}

	// Unauthenticated surface.
	r.Get("/health", h.Health)
	r.Post("/login", h.Login)
	r.Handle("/metrics", promhttp.Handler())

	// Everything else requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(h.tokens.Authenticate)

		r.Post("/logout", h.Logout)
		r.Get("/diseases", h.Diseases)
		r.Get("/years", h.Years)
		r.Get("/disease-codes", h.DiseaseCodes)
		r.Get("/map", h.MapGeoJSON)
		r.Get("/top", h.Top)
		r.Get("/export", h.Export)
	})

	return r
}
