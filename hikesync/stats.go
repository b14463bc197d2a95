// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikesync

import (
	"context"
	"fmt"
	"log/slog"
)

// StatsCalculator performs the read-only sizing pass over a guest's unsynced
// data. It is pure and idempotent; callers use the result both to short
// circuit empty migrations and to size the progress bar.
type StatsCalculator struct {
	Local  LocalStore
	Files  FileStore
	logger *slog.Logger
}

// NewStatsCalculator creates a stats calculator. A nil logger falls back to
// slog.Default().
func NewStatsCalculator(local LocalStore, files FileStore, logger *slog.Logger) *StatsCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCalculator{Local: local, Files: files, logger: logger}
}

// ComputeStats counts the guest's unsynced hikes, their observations and all
// attached image references, and sums the byte size of the image files that
// are present on disk. Missing files contribute zero bytes; they are not
// errors at this stage. Any local-store read failure aborts with an error and
// no partial stats.
func (c *StatsCalculator) ComputeStats(ctx context.Context, guestID string) (*MigrationStats, error) {
	hikes, err := c.Local.ListUnsyncedHikes(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced hikes: %w", err)
	}

	stats := &MigrationStats{TotalHikes: len(hikes)}

	for _, hike := range hikes {
		stats.TotalImages += len(hike.Images)
		stats.TotalImageBytes += c.sumImageBytes(hike.Images)

		observations, err := c.Local.ListObservations(ctx, hike.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list observations for hike %s: %w", hike.ID, err)
		}
		stats.TotalObservations += len(observations)
		for _, obs := range observations {
			stats.TotalImages += len(obs.Images)
			stats.TotalImageBytes += c.sumImageBytes(obs.Images)
		}
	}

	c.logger.Debug("Computed migration stats",
		"guest_id", guestID,
		"hikes", stats.TotalHikes,
		"observations", stats.TotalObservations,
		"images", stats.TotalImages,
		"image_bytes", stats.TotalImageBytes)

	return stats, nil
}

// sumImageBytes adds up the sizes of the files that exist. Lookup failures
// are treated the same as missing files.
func (c *StatsCalculator) sumImageBytes(images []string) int64 {
	var total int64
	for _, path := range images {
		exists, err := c.Files.Exists(path)
		if err != nil || !exists {
			continue
		}
		size, err := c.Files.Size(path)
		if err != nil {
			continue
		}
		total += size
	}
	return total
}
