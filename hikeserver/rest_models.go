// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package hikeserver implements the cloud side of the m-hike journal: a
// Postgres-backed document store for hikes and observations, HTTP handlers
// for the create/exists API the migration pipeline drives, and JWT
// authentication.
package hikeserver

import (
	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// CreateHikeRequest is the payload of POST /journal/hikes.
type CreateHikeRequest struct {
	Hike hikesync.Hike `json:"hike"`
}

// CreateHikeResponse echoes the stored document.
type CreateHikeResponse struct {
	Hike hikesync.Hike `json:"hike"`
}

// CreateObservationRequest is the payload of POST /journal/observations.
type CreateObservationRequest struct {
	Observation hikesync.Observation `json:"observation"`
}

// CreateObservationResponse echoes the stored document.
type CreateObservationResponse struct {
	Observation hikesync.Observation `json:"observation"`
}

// ExistsResponse is the payload of GET /journal/hikes/{id}/exists.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
