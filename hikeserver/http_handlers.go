// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikeserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ClientAuthenticator extracts the authenticated user identity from HTTP
// requests. Implementations validate auth (e.g. JWT) before answering.
type ClientAuthenticator interface {
	GetUserID(r *http.Request) (string, error)
}

// HTTPHandlers provides the HTTP surface of the journal remote store.
type HTTPHandlers struct {
	service       *Service
	authenticator ClientAuthenticator
	logger        *slog.Logger
}

// NewHTTPHandlers creates handler bindings for a journal service.
func NewHTTPHandlers(service *Service, authenticator ClientAuthenticator, logger *slog.Logger) *HTTPHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandlers{
		service:       service,
		authenticator: authenticator,
		logger:        logger,
	}
}

// Register wires the journal routes onto a mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /journal/hikes", h.HandleCreateHike)
	mux.HandleFunc("POST /journal/observations", h.HandleCreateObservation)
	mux.HandleFunc("GET /journal/hikes/{id}/exists", h.HandleHikeExists)
}

// HandleCreateHike processes POST /journal/hikes.
func (h *HTTPHandlers) HandleCreateHike(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticator.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	var req CreateHikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse create hike request")
		return
	}

	hike, err := h.service.CreateHike(r.Context(), userID, req.Hike)
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			h.writeError(w, http.StatusForbidden, "not_owner", err.Error())
			return
		}
		h.logger.Warn("Create hike failed", "hike_id", req.Hike.ID, "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, "create_failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, CreateHikeResponse{Hike: hike})
}

// HandleCreateObservation processes POST /journal/observations.
func (h *HTTPHandlers) HandleCreateObservation(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticator.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	var req CreateObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse create observation request")
		return
	}

	obs, err := h.service.CreateObservation(r.Context(), userID, req.Observation)
	if err != nil {
		switch {
		case errors.Is(err, ErrParentHikeMissing):
			h.writeError(w, http.StatusUnprocessableEntity, "parent_hike_missing", err.Error())
		case errors.Is(err, ErrNotOwner):
			h.writeError(w, http.StatusForbidden, "not_owner", err.Error())
		default:
			h.logger.Warn("Create observation failed", "observation_id", req.Observation.ID, "error", err)
			h.writeError(w, http.StatusUnprocessableEntity, "create_failed", err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, CreateObservationResponse{Observation: obs})
}

// HandleHikeExists processes GET /journal/hikes/{id}/exists.
func (h *HTTPHandlers) HandleHikeExists(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticator.GetUserID(r); err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	hikeID := r.PathValue("id")
	if hikeID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Hike id is required")
		return
	}

	exists, err := h.service.HikeExists(r.Context(), hikeID)
	if err != nil {
		h.logger.Warn("Existence check failed", "hike_id", hikeID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to check hike existence")
		return
	}

	h.writeJSON(w, http.StatusOK, ExistsResponse{Exists: exists})
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, code, message string) {
	writeJSON(logger, w, status, ErrorResponse{Code: code, Message: message})
}

func (h *HTTPHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(h.logger, w, status, payload)
}

func (h *HTTPHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	writeError(h.logger, w, status, code, message)
}
