// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikeserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// ErrParentHikeMissing is returned when an observation references a hike that
// does not exist remotely. Observations may only be attached to hikes that
// were created first.
var ErrParentHikeMissing = errors.New("parent hike does not exist")

// ErrNotOwner is returned when a caller touches a document owned by a
// different user.
var ErrNotOwner = errors.New("document owned by another user")

// DocumentStore is the persistence boundary of the journal service. The
// Postgres implementation is PgDocumentStore; tests use an in-memory one.
type DocumentStore interface {
	// UpsertHike writes the hike document. Writing the same id twice must be
	// idempotent so a retried migration attempt converges.
	UpsertHike(ctx context.Context, hike hikesync.Hike) error

	// UpsertObservation writes the observation document under the same
	// idempotency contract.
	UpsertObservation(ctx context.Context, obs hikesync.Observation) error

	// GetHikeOwner reports whether the hike exists and who owns it.
	GetHikeOwner(ctx context.Context, hikeID string) (ownerID string, exists bool, err error)
}

// Service provides the journal's remote-store operations.
type Service struct {
	store  DocumentStore
	logger *slog.Logger
}

// NewService creates a journal service. A nil logger falls back to
// slog.Default().
func NewService(store DocumentStore, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// CreateHike stores a hike document owned by userID. The owner on the stored
// document always comes from the authenticated caller, never from the
// payload. Re-creating an id the caller already owns is idempotent.
func (s *Service) CreateHike(ctx context.Context, userID string, hike hikesync.Hike) (hikesync.Hike, error) {
	if err := validateHike(hike); err != nil {
		return hikesync.Hike{}, err
	}

	owner, exists, err := s.store.GetHikeOwner(ctx, hike.ID)
	if err != nil {
		return hikesync.Hike{}, fmt.Errorf("failed to check hike %s: %w", hike.ID, err)
	}
	if exists && owner != userID {
		return hikesync.Hike{}, ErrNotOwner
	}

	hike.OwnerID = userID
	now := time.Now().UTC()
	if hike.CreatedAt.IsZero() {
		hike.CreatedAt = now
	}
	hike.UpdatedAt = now
	if hike.Images == nil {
		hike.Images = []string{}
	}

	if err := s.store.UpsertHike(ctx, hike); err != nil {
		return hikesync.Hike{}, fmt.Errorf("failed to store hike %s: %w", hike.ID, err)
	}
	s.logger.Info("Stored hike document", "hike_id", hike.ID, "owner_id", userID)
	return hike, nil
}

// CreateObservation stores an observation document. The parent hike must
// already exist and be owned by the caller.
func (s *Service) CreateObservation(ctx context.Context, userID string, obs hikesync.Observation) (hikesync.Observation, error) {
	if obs.ID == "" {
		return hikesync.Observation{}, fmt.Errorf("observation id is required")
	}
	if obs.HikeID == "" {
		return hikesync.Observation{}, fmt.Errorf("observation hike id is required")
	}
	if obs.Text == "" {
		return hikesync.Observation{}, fmt.Errorf("observation text is required")
	}

	owner, exists, err := s.store.GetHikeOwner(ctx, obs.HikeID)
	if err != nil {
		return hikesync.Observation{}, fmt.Errorf("failed to check parent hike %s: %w", obs.HikeID, err)
	}
	if !exists {
		return hikesync.Observation{}, ErrParentHikeMissing
	}
	if owner != userID {
		return hikesync.Observation{}, ErrNotOwner
	}

	now := time.Now().UTC()
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = now
	}
	obs.UpdatedAt = now
	if obs.Images == nil {
		obs.Images = []string{}
	}

	if err := s.store.UpsertObservation(ctx, obs); err != nil {
		return hikesync.Observation{}, fmt.Errorf("failed to store observation %s: %w", obs.ID, err)
	}
	s.logger.Info("Stored observation document", "observation_id", obs.ID, "hike_id", obs.HikeID)
	return obs, nil
}

// HikeExists reports whether the hike document is present. Cleanup
// verification on the client depends on this answer being authoritative.
func (s *Service) HikeExists(ctx context.Context, hikeID string) (bool, error) {
	_, exists, err := s.store.GetHikeOwner(ctx, hikeID)
	if err != nil {
		return false, fmt.Errorf("failed to check hike %s: %w", hikeID, err)
	}
	return exists, nil
}

func validateHike(hike hikesync.Hike) error {
	if hike.ID == "" {
		return fmt.Errorf("hike id is required")
	}
	if hike.Name == "" {
		return fmt.Errorf("hike name is required")
	}
	if !hike.Difficulty.Valid() {
		return fmt.Errorf("invalid hike difficulty: %q", hike.Difficulty)
	}
	return nil
}
