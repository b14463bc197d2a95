// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikesync

import (
	"context"
	"fmt"
	"log/slog"
)

// Cleaner verifies that migrated data exists remotely and deletes the local
// copies of the data it could verify. Verification never trusts the local
// synced flag alone: every candidate hike is checked against the remote store
// before its id enters the verified set.
type Cleaner struct {
	Local  LocalStore
	Remote RemoteStore
	Files  FileStore
	logger *slog.Logger
}

// NewCleaner creates a cleanup verifier. A nil logger falls back to
// slog.Default().
func NewCleaner(local LocalStore, remote RemoteStore, files FileStore, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{Local: local, Remote: remote, Files: files, logger: logger}
}

// Verify confirms remote existence for every local hike already marked synced
// and owned by ownerID. A remote check that fails (network, server error)
// makes the result unsuccessful; a hike that definitively does not exist
// remotely is excluded from the verified set but does not block verified
// siblings from later cleanup.
func (c *Cleaner) Verify(ctx context.Context, ownerID string) (*VerificationResult, error) {
	hikes, err := c.Local.ListSyncedHikes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list synced hikes: %w", err)
	}

	result := &VerificationResult{
		Success:         true,
		VerifiedHikeIDs: []string{},
		Errors:          []string{},
	}

	for _, hike := range hikes {
		exists, err := c.Remote.HikeExists(ctx, hike.ID)
		if err != nil {
			result.Success = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to verify hike %s: %v", hike.ID, err))
			continue
		}
		if !exists {
			// Marked synced locally but absent remotely. Do not delete it;
			// a fresh migration attempt will re-create it.
			c.logger.Warn("Synced hike missing from remote store",
				"hike_id", hike.ID, "owner_id", hike.OwnerID)
			continue
		}
		result.VerifiedHikeIDs = append(result.VerifiedHikeIDs, hike.ID)
	}

	return result, nil
}

// Cleanup deletes the local copies of verified hikes: their image files,
// their observations' image files, and finally the hike rows (observations
// cascade). If verification reports any failure nothing is deleted.
// Deleting an individual file is best-effort; a failure there is logged but
// does not abort cleanup of the remaining hikes. Cleanup is idempotent: once
// everything verified is gone, a second call finds nothing to delete.
func (c *Cleaner) Cleanup(ctx context.Context, ownerID string) error {
	verification, err := c.Verify(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("cleanup verification failed: %w", err)
	}
	if !verification.Success {
		return fmt.Errorf("cleanup aborted, verification reported %d failure(s): %s",
			len(verification.Errors), verification.Errors[0])
	}

	verified := make(map[string]bool, len(verification.VerifiedHikeIDs))
	for _, id := range verification.VerifiedHikeIDs {
		verified[id] = true
	}

	hikes, err := c.Local.ListSyncedHikes(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list synced hikes for cleanup: %w", err)
	}

	deleted := 0
	for _, hike := range hikes {
		if !verified[hike.ID] {
			continue
		}

		c.removeFiles(hike.Images)
		if hike.CoverImage != "" {
			c.removeFiles([]string{hike.CoverImage})
		}

		observations, err := c.Local.ListObservations(ctx, hike.ID)
		if err != nil {
			return fmt.Errorf("failed to list observations for hike %s: %w", hike.ID, err)
		}
		for _, obs := range observations {
			c.removeFiles(obs.Images)
		}

		if err := c.Local.DeleteHike(ctx, hike.ID); err != nil {
			return fmt.Errorf("failed to delete local hike %s: %w", hike.ID, err)
		}
		deleted++
	}

	c.logger.Info("Local cleanup finished", "owner_id", ownerID, "deleted_hikes", deleted)
	return nil
}

func (c *Cleaner) removeFiles(paths []string) {
	for _, path := range paths {
		exists, err := c.Files.Exists(path)
		if err != nil || !exists {
			continue
		}
		if err := c.Files.Remove(path); err != nil {
			c.logger.Warn("Failed to delete local image file", "path", path, "error", err)
		}
	}
}
