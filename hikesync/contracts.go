// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikesync

import (
	"context"
	"errors"
)

// ErrMigrationInFlight is returned by Cleanup when a migration attempt for
// the same guest is still running.
var ErrMigrationInFlight = errors.New("migration already in flight for this guest")

// ErrFileNotFound is reported by FileStore and ImageUploader implementations
// when a referenced local image file does not exist.
var ErrFileNotFound = errors.New("local file not found")

// LocalStore is the contract the migration core consumes from the on-device
// relational store. The synced flag it maintains is the single source of
// truth for what still needs migrating.
type LocalStore interface {
	// ListUnsyncedHikes returns every hike owned by guestID whose remote
	// counterpart has not been confirmed yet, in store iteration order.
	ListUnsyncedHikes(ctx context.Context, guestID string) ([]Hike, error)

	// ListSyncedHikes returns every hike owned by ownerID already marked
	// synced. Used by verification and cleanup.
	ListSyncedHikes(ctx context.Context, ownerID string) ([]Hike, error)

	// ListObservations returns the observations attached to a hike, in store
	// iteration order.
	ListObservations(ctx context.Context, hikeID string) ([]Observation, error)

	// MarkHikeSynced flips the hike's synced flag. Callers must only invoke
	// this after the remote create for that exact id succeeded.
	MarkHikeSynced(ctx context.Context, hikeID string) error

	// MarkObservationSynced flips the observation's synced flag under the
	// same contract as MarkHikeSynced.
	MarkObservationSynced(ctx context.Context, observationID string) error

	// DeleteHike removes the local hike row; observation rows cascade.
	DeleteHike(ctx context.Context, hikeID string) error
}

// RemoteStore is the contract the migration core consumes from the cloud
// document store.
type RemoteStore interface {
	// CreateHike writes the hike to the remote store and returns the stored
	// document. Creating the same id twice must be idempotent.
	CreateHike(ctx context.Context, hike Hike) (Hike, error)

	// CreateObservation writes the observation to the remote store. The parent
	// hike must already exist remotely.
	CreateObservation(ctx context.Context, obs Observation) (Observation, error)

	// HikeExists independently confirms remote presence of a hike by id.
	// Used by cleanup verification; never trusts local state. Lookup is by id
	// alone because the local row still carries the guest owner id after the
	// remote copy was re-owned.
	HikeExists(ctx context.Context, hikeID string) (bool, error)
}

// ImageUploader moves one local image file to remote object storage and
// returns its remote URL. Implementations must honor ctx cancellation so the
// orchestrator can abandon an upload that exceeds its per-image budget
// without leaking the transfer. Missing local files are an error, never a
// silent success.
type ImageUploader interface {
	Upload(ctx context.Context, localPath, hikeID, observationID string) (string, error)
}

// FileStore is the contract for local image files.
type FileStore interface {
	// Exists reports whether the file is present.
	Exists(path string) (bool, error)

	// Size returns the file's byte length.
	Size(path string) (int64, error)

	// Remove deletes the file.
	Remove(path string) error
}
