// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikeserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SignupRequest converts a guest into an account. GuestID is the local guest
// identifier whose journal the client intends to migrate; it is embedded in
// the issued token so the server can associate the two identities.
type SignupRequest struct {
	GuestID string `json:"guest_id"`
}

// SignupResponse carries the new account identity and its bearer token.
type SignupResponse struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupHandler issues accounts and tokens for guests signing up. This is a
// development-grade signup (no credentials); production deployments put a
// real identity provider in front of the journal routes instead.
type SignupHandler struct {
	auth    *JWTAuth
	expiry  time.Duration
	logger  *slog.Logger
	newUser func() string
}

// NewSignupHandler creates a signup endpoint backed by the given JWT issuer.
func NewSignupHandler(auth *JWTAuth, expiry time.Duration, logger *slog.Logger) *SignupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &SignupHandler{
		auth:    auth,
		expiry:  expiry,
		logger:  logger,
		newUser: func() string { return uuid.New().String() },
	}
}

// HandleSignup processes POST /auth/signup.
func (h *SignupHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "Failed to parse signup request")
		return
	}
	if req.GuestID == "" {
		writeError(h.logger, w, http.StatusUnprocessableEntity, "invalid_request", "guest_id is required")
		return
	}

	userID := h.newUser()
	token, err := h.auth.GenerateToken(userID, req.GuestID, h.expiry)
	if err != nil {
		h.logger.Error("Failed to issue token", "guest_id", req.GuestID, "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	h.logger.Info("Guest signed up", "guest_id", req.GuestID, "user_id", userID)
	writeJSON(h.logger, w, http.StatusCreated, SignupResponse{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(h.expiry),
	})
}
