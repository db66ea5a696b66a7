// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

// Package models defines the request and response bodies of the HTTP API.
package models

// Stable machine-readable error codes carried in every error response.
const (
	CodeAuthentication  = "AUTHENTICATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// StatusResponse is the body of /health and of a successful logout.
type StatusResponse struct {
	Status string `json:"status"`
}

// APIError is the inner error object of an ErrorResponse.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform error envelope of every non-2xx response.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewErrorResponse builds an ErrorResponse with the given code and message.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: message}}
}
