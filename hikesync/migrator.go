// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config holds configuration for the migration pipeline.
type Config struct {
	ImageUploadTimeout time.Duration // budget for a single image upload
	MigrationTimeout   time.Duration // backstop for the whole attempt
	ProgressBuffer     int           // progress channel buffer size
}

// DefaultConfig returns the default migration configuration.
func DefaultConfig() *Config {
	return &Config{
		ImageUploadTimeout: 30 * time.Second,
		MigrationTimeout:   10 * time.Minute,
		ProgressBuffer:     16,
	}
}

// Migrator drives the end-to-end migration of one guest's local data set to
// one authenticated account. The pipeline is sequential by design: hikes,
// observations and images are processed one at a time, trading throughput for
// bounded memory and network concurrency.
type Migrator struct {
	Local    LocalStore
	Remote   RemoteStore
	Uploader ImageUploader
	Files    FileStore

	config *Config
	logger *slog.Logger

	// Serialize attempts: the synced-flag design assumes single-writer access,
	// so at most one migration runs per Migrator at a time.
	runMu sync.Mutex
}

// NewMigrator creates a migration orchestrator. A nil config gets defaults,
// a nil logger falls back to slog.Default().
func NewMigrator(local LocalStore, remote RemoteStore, uploader ImageUploader, files FileStore, config *Config, logger *slog.Logger) (*Migrator, error) {
	if local == nil || remote == nil || uploader == nil || files == nil {
		return nil, fmt.Errorf("local store, remote store, uploader and file store are all required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		Local:    local,
		Remote:   remote,
		Uploader: uploader,
		Files:    files,
		config:   config,
		logger:   logger,
	}, nil
}

// Migrate starts a fresh migration attempt for guestID, re-owning every
// migrated record to newOwnerID. It returns a finite stream of Progress
// snapshots; the channel is closed when the attempt ends. The attempt is not
// resumable — a new call starts over from whatever the synced flags say is
// still pending. Cancelling ctx abandons further processing and cancels the
// in-flight upload.
func (m *Migrator) Migrate(ctx context.Context, guestID, newOwnerID string) <-chan Progress {
	ch := make(chan Progress, m.config.ProgressBuffer)
	go m.run(ctx, guestID, newOwnerID, ch)
	return ch
}

func (m *Migrator) run(callerCtx context.Context, guestID, newOwnerID string, ch chan<- Progress) {
	defer close(ch)

	m.runMu.Lock()
	defer m.runMu.Unlock()

	ctx, cancel := context.WithTimeout(callerCtx, m.config.MigrationTimeout)
	defer cancel()

	r := &migrationRun{
		m:         m,
		guestID:   guestID,
		ownerID:   newOwnerID,
		errors:    []string{},
		ch:        ch,
		callerCtx: callerCtx,
	}

	// Nothing thrown by a collaborator may escape the orchestrator: a panic
	// becomes a terminal, retryable error event.
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("Migration aborted by panic", "guest_id", guestID, "panic", rec)
			r.emit(progressError(fmt.Sprintf("migration failed: %v", rec), true))
		}
	}()

	if err := r.execute(ctx); err != nil {
		if callerCtx.Err() != nil {
			// Consumer abandoned the stream; nobody is listening.
			m.logger.Info("Migration cancelled", "guest_id", guestID)
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			r.emit(progressError(fmt.Sprintf("migration timed out after %s", m.config.MigrationTimeout), true))
			return
		}
		r.emit(progressError(err.Error(), true))
	}
}

// migrationRun carries the mutable state of one attempt.
type migrationRun struct {
	m                *Migrator
	guestID, ownerID string

	stats                *MigrationStats
	migratedHikes        int
	migratedObservations int
	uploadedImages       int
	attemptedImages      int // global counter feeding UploadingImages progress
	errors               []string

	ch        chan<- Progress
	callerCtx context.Context
}

// emit delivers one snapshot unless the consumer has abandoned the stream.
func (r *migrationRun) emit(p Progress) {
	select {
	case r.ch <- p:
	case <-r.callerCtx.Done():
	}
}

func (r *migrationRun) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.m.logger.Warn("Migration item failed", "guest_id", r.guestID, "error", msg)
	r.errors = append(r.errors, msg)
}

// execute runs steps 1-6 of the pipeline. It returns an error only for
// attempt-fatal failures (stats failure, context timeout/cancellation); all
// per-image and per-entity failures are recorded and swallowed.
func (r *migrationRun) execute(ctx context.Context) error {
	calc := NewStatsCalculator(r.m.Local, r.m.Files, r.m.logger)
	stats, err := calc.ComputeStats(ctx, r.guestID)
	if err != nil {
		return err
	}
	if stats.IsEmpty() {
		r.m.logger.Info("Nothing to migrate", "guest_id", r.guestID)
		r.emit(progressComplete(&MigrationResult{Errors: []string{}}))
		return nil
	}
	r.stats = stats
	r.emit(progressInitializing(stats))

	hikes, err := r.m.Local.ListUnsyncedHikes(ctx, r.guestID)
	if err != nil {
		return fmt.Errorf("failed to list unsynced hikes: %w", err)
	}

	for i, hike := range hikes {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.emit(progressMigratingHikes(i+1, len(hikes), hike.Name))
		if err := r.migrateHike(ctx, hike); err != nil {
			return err
		}
	}

	result := &MigrationResult{
		MigratedHikes:        r.migratedHikes,
		MigratedObservations: r.migratedObservations,
		UploadedImages:       r.uploadedImages,
		FailedItems: (stats.TotalHikes - r.migratedHikes) +
			(stats.TotalObservations - r.migratedObservations),
		Errors: r.errors,
	}
	r.m.logger.Info("Migration complete",
		"guest_id", r.guestID,
		"migrated_hikes", result.MigratedHikes,
		"migrated_observations", result.MigratedObservations,
		"uploaded_images", result.UploadedImages,
		"failed_items", result.FailedItems)
	r.emit(progressComplete(result))
	return nil
}

// migrateHike migrates one hike and, if its remote create succeeded, its
// observations. A failed hike create is recorded and skips the observations:
// a hike must exist remotely before observations can be attached.
func (r *migrationRun) migrateHike(ctx context.Context, hike Hike) error {
	urls, byPath := r.uploadImages(ctx, hike.Images, hike.ID, "")
	if err := ctx.Err(); err != nil {
		return err
	}

	remote := hike
	remote.OwnerID = r.ownerID
	remote.Images = urls
	// A cover whose upload failed keeps its local reference rather than being
	// silently dropped.
	if url, ok := byPath[hike.CoverImage]; ok {
		remote.CoverImage = url
	}

	if _, err := r.m.Remote.CreateHike(ctx, remote); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.errorf("failed to migrate hike %q: %v", hike.Name, err)
		return nil
	}

	if err := r.m.Local.MarkHikeSynced(ctx, hike.ID); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The remote copy exists; the flag will be retried by a fresh attempt
		// (remote creates are idempotent).
		r.errorf("failed to mark hike %q synced: %v", hike.Name, err)
	}
	r.migratedHikes++

	return r.migrateObservations(ctx, hike)
}

func (r *migrationRun) migrateObservations(ctx context.Context, hike Hike) error {
	observations, err := r.m.Local.ListObservations(ctx, hike.ID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.errorf("failed to load observations for hike %q: %v", hike.Name, err)
		return nil
	}

	for j, obs := range observations {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.emit(progressMigratingObservations(j+1, len(observations), hike.ID))

		urls, _ := r.uploadImages(ctx, obs.Images, hike.ID, obs.ID)
		if err := ctx.Err(); err != nil {
			return err
		}

		remote := obs
		remote.Images = urls
		if _, err := r.m.Remote.CreateObservation(ctx, remote); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.errorf("failed to migrate observation %s of hike %q: %v", obs.ID, hike.Name, err)
			continue
		}

		if err := r.m.Local.MarkObservationSynced(ctx, obs.ID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.errorf("failed to mark observation %s synced: %v", obs.ID, err)
		}
		r.migratedObservations++
	}
	return nil
}

// uploadImages uploads each image under the per-image timeout. Failed uploads
// are recorded and dropped: the migrated entity keeps only the URLs that
// succeeded. It returns the ordered URL list and a local-path-to-URL map used
// to remap the cover image reference.
func (r *migrationRun) uploadImages(ctx context.Context, images []string, hikeID, observationID string) ([]string, map[string]string) {
	urls := make([]string, 0, len(images))
	byPath := make(map[string]string, len(images))

	for _, path := range images {
		if ctx.Err() != nil {
			return urls, byPath
		}
		r.attemptedImages++
		r.emit(progressUploadingImages(r.attemptedImages, r.stats.TotalImages))

		url, err := r.uploadOne(ctx, path, hikeID, observationID)
		if err != nil {
			if ctx.Err() != nil {
				// Global timeout or cancellation; the run-level handler turns
				// this into the terminal event.
				return urls, byPath
			}
			r.errorf("failed to upload image %s: %v", path, err)
			continue
		}
		urls = append(urls, url)
		byPath[path] = url
		r.uploadedImages++
	}
	return urls, byPath
}

func (r *migrationRun) uploadOne(ctx context.Context, path, hikeID, observationID string) (string, error) {
	uctx, cancel := context.WithTimeout(ctx, r.m.config.ImageUploadTimeout)
	defer cancel()

	url, err := r.m.Uploader.Upload(uctx, path, hikeID, observationID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("upload timed out after %s", r.m.config.ImageUploadTimeout)
		}
		return "", err
	}
	return url, nil
}
