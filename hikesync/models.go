// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package hikesync implements the guest-to-authenticated migration pipeline
// for the m-hike journal: moving locally stored hikes, their observations and
// their image files into the remote store, with per-item failure isolation,
// progress reporting and verified local cleanup.
package hikesync

import (
	"encoding/json"
	"fmt"
	"time"
)

// Difficulty is the hike difficulty rating.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty ratings.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Coordinates is an optional geographic position attached to a hike location
// or an observation.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Hike is a journal entry. While unsynced it is owned by the local store;
// once Synced is set its remote counterpart is authoritative and the local
// row is retained only until cleanup confirms and deletes it.
type Hike struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Name         string       `json:"name"`
	LocationName string       `json:"location_name"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Date         time.Time    `json:"date"`
	LengthKm     float64      `json:"length_km"`
	Difficulty   Difficulty   `json:"difficulty"`
	Parking      bool         `json:"parking"`
	Description  string       `json:"description"`
	Terrain      string       `json:"terrain"`
	GroupSize    int          `json:"group_size"`
	CoverImage   string       `json:"cover_image,omitempty"`
	Images       []string     `json:"images"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Synced       bool         `json:"synced"`
}

// Observation is a field note attached to a hike. Its lifecycle mirrors the
// hike's: created locally, migrated individually, deleted locally only after
// remote confirmation (via the parent hike's cascade).
type Observation struct {
	ID          string       `json:"id"`
	HikeID      string       `json:"hike_id"`
	Text        string       `json:"text"`
	ObservedAt  time.Time    `json:"observed_at"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Images      []string     `json:"images"`
	Comments    string       `json:"comments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Synced      bool         `json:"synced"`
}

// MigrationStats is a read-only sizing pass over the guest's unsynced data.
// Computed fresh per migration attempt, never persisted.
type MigrationStats struct {
	TotalHikes        int   `json:"total_hikes"`
	TotalObservations int   `json:"total_observations"`
	TotalImages       int   `json:"total_images"`
	TotalImageBytes   int64 `json:"total_image_bytes"`
}

// IsEmpty reports whether there is nothing to migrate.
func (s *MigrationStats) IsEmpty() bool {
	return s.TotalHikes == 0 && s.TotalObservations == 0 && s.TotalImages == 0
}

// MigrationResult summarizes one completed migration attempt. Partial success
// is an expected outcome: callers should surface Errors alongside the counts.
type MigrationResult struct {
	MigratedHikes        int      `json:"migrated_hikes"`
	MigratedObservations int      `json:"migrated_observations"`
	UploadedImages       int      `json:"uploaded_images"`
	FailedItems          int      `json:"failed_items"`
	Errors               []string `json:"errors,omitempty"`
}

// IsSuccessful reports whether every requested item migrated cleanly.
func (r *MigrationResult) IsSuccessful() bool {
	return r.FailedItems == 0 && len(r.Errors) == 0
}

// VerificationResult is the outcome of confirming remote existence of synced
// hikes before local cleanup. Only ids in VerifiedHikeIDs may be deleted.
type VerificationResult struct {
	Success         bool     `json:"success"`
	VerifiedHikeIDs []string `json:"verified_hike_ids"`
	Errors          []string `json:"errors,omitempty"`
}

// EncodeImageList serializes an image reference list to the JSON array form
// used wherever the list is persisted locally.
func EncodeImageList(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode image list: %w", err)
	}
	return string(data), nil
}

// DecodeImageList parses the persisted JSON array form of an image list.
// Empty input decodes to an empty list.
func DecodeImageList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("failed to decode image list: %w", err)
	}
	if images == nil {
		images = []string{}
	}
	return images, nil
}
