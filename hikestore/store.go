// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package hikestore implements the on-device journal storage: a SQLite
// relational store for hikes and observations plus a directory-backed image
// file store. It satisfies the hikesync LocalStore and FileStore contracts.
package hikestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// Store is the local relational store. The synced column it maintains is the
// single source of truth for what the migration pipeline still has to move.
type Store struct {
	DB     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the journal database at path with the single-writer
// SQLite settings the app relies on, and initializes the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents SQLite locking issues under concurrent reads
	// while a migration attempt is writing synced flags.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing database handle and initializes the schema.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := initializeSchema(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{DB: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS hikes (
			id            TEXT PRIMARY KEY,
			owner_id      TEXT NOT NULL,
			name          TEXT NOT NULL,
			location_name TEXT NOT NULL DEFAULT '',
			latitude      REAL,
			longitude     REAL,
			date          TEXT NOT NULL,
			length_km     REAL NOT NULL DEFAULT 0,
			difficulty    TEXT NOT NULL DEFAULT 'easy',
			parking       INTEGER NOT NULL DEFAULT 0,
			description   TEXT NOT NULL DEFAULT '',
			terrain       TEXT NOT NULL DEFAULT '',
			group_size    INTEGER NOT NULL DEFAULT 1,
			cover_image   TEXT NOT NULL DEFAULT '',
			images        TEXT NOT NULL DEFAULT '[]',  -- JSON array of strings
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,
			synced        INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS observations (
			id          TEXT PRIMARY KEY,
			hike_id     TEXT NOT NULL REFERENCES hikes(id) ON DELETE CASCADE,
			text        TEXT NOT NULL,
			observed_at TEXT NOT NULL,
			latitude    REAL,
			longitude   REAL,
			images      TEXT NOT NULL DEFAULT '[]',  -- JSON array of strings
			comments    TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			synced      INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_hikes_owner_synced ON hikes(owner_id, synced)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_hike ON observations(hike_id)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create journal table: %w", err)
		}
	}
	return nil
}

// SaveHike inserts or replaces a hike row.
func (s *Store) SaveHike(ctx context.Context, h hikesync.Hike) error {
	images, err := hikesync.EncodeImageList(h.Images)
	if err != nil {
		return err
	}
	var lat, lon any
	if h.Coordinates != nil {
		lat, lon = h.Coordinates.Latitude, h.Coordinates.Longitude
	}
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	_, err = s.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO hikes
			(id, owner_id, name, location_name, latitude, longitude, date, length_km,
			 difficulty, parking, description, terrain, group_size, cover_image,
			 images, created_at, updated_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.OwnerID, h.Name, h.LocationName, lat, lon,
		h.Date.UTC().Format(time.RFC3339Nano), h.LengthKm,
		string(h.Difficulty), boolToInt(h.Parking), h.Description, h.Terrain,
		h.GroupSize, h.CoverImage, images,
		h.CreatedAt.UTC().Format(time.RFC3339Nano),
		h.UpdatedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(h.Synced))
	if err != nil {
		return fmt.Errorf("failed to save hike %s: %w", h.ID, err)
	}
	return nil
}

// SaveObservation inserts or replaces an observation row. The parent hike
// must exist locally.
func (s *Store) SaveObservation(ctx context.Context, o hikesync.Observation) error {
	images, err := hikesync.EncodeImageList(o.Images)
	if err != nil {
		return err
	}
	var lat, lon any
	if o.Coordinates != nil {
		lat, lon = o.Coordinates.Latitude, o.Coordinates.Longitude
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	_, err = s.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO observations
			(id, hike_id, text, observed_at, latitude, longitude, images,
			 comments, created_at, updated_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.HikeID, o.Text, o.ObservedAt.UTC().Format(time.RFC3339Nano),
		lat, lon, images, o.Comments,
		o.CreatedAt.UTC().Format(time.RFC3339Nano),
		o.UpdatedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(o.Synced))
	if err != nil {
		return fmt.Errorf("failed to save observation %s: %w", o.ID, err)
	}
	return nil
}

// GetHike loads one hike by id, or sql.ErrNoRows if absent.
func (s *Store) GetHike(ctx context.Context, hikeID string) (*hikesync.Hike, error) {
	row := s.DB.QueryRowContext(ctx, hikeSelect+` WHERE id = ?`, hikeID)
	hike, err := scanHike(row)
	if err != nil {
		return nil, err
	}
	return &hike, nil
}

// ListUnsyncedHikes returns guestID's hikes whose remote counterpart has not
// been confirmed yet, in insertion order.
func (s *Store) ListUnsyncedHikes(ctx context.Context, guestID string) ([]hikesync.Hike, error) {
	return s.listHikes(ctx, guestID, 0)
}

// ListSyncedHikes returns ownerID's hikes already marked synced.
func (s *Store) ListSyncedHikes(ctx context.Context, ownerID string) ([]hikesync.Hike, error) {
	return s.listHikes(ctx, ownerID, 1)
}

func (s *Store) listHikes(ctx context.Context, ownerID string, synced int) ([]hikesync.Hike, error) {
	rows, err := s.DB.QueryContext(ctx, hikeSelect+` WHERE owner_id = ? AND synced = ? ORDER BY rowid`, ownerID, synced)
	if err != nil {
		return nil, fmt.Errorf("failed to query hikes: %w", err)
	}
	defer rows.Close()

	var hikes []hikesync.Hike
	for rows.Next() {
		hike, err := scanHike(rows)
		if err != nil {
			return nil, err
		}
		hikes = append(hikes, hike)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hikes: %w", err)
	}
	return hikes, nil
}

// ListObservations returns the observations of one hike, in insertion order.
func (s *Store) ListObservations(ctx context.Context, hikeID string) ([]hikesync.Observation, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, hike_id, text, observed_at, latitude, longitude, images,
		       comments, created_at, updated_at, synced
		FROM observations WHERE hike_id = ? ORDER BY rowid
	`, hikeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var observations []hikesync.Observation
	for rows.Next() {
		var (
			o                    hikesync.Observation
			observedAt, created  string
			updated, images      string
			lat, lon             sql.NullFloat64
			synced               int
		)
		if err := rows.Scan(&o.ID, &o.HikeID, &o.Text, &observedAt, &lat, &lon,
			&images, &o.Comments, &created, &updated, &synced); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		if o.ObservedAt, err = parseTime(observedAt); err != nil {
			return nil, err
		}
		if o.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if o.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		if o.Images, err = hikesync.DecodeImageList(images); err != nil {
			return nil, err
		}
		o.Coordinates = coordsFromNullable(lat, lon)
		o.Synced = synced != 0
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}
	return observations, nil
}

// MarkHikeSynced flips the hike's synced flag after its remote create has
// been confirmed.
func (s *Store) MarkHikeSynced(ctx context.Context, hikeID string) error {
	return s.markSynced(ctx, "hikes", hikeID)
}

// MarkObservationSynced flips the observation's synced flag after its remote
// create has been confirmed.
func (s *Store) MarkObservationSynced(ctx context.Context, observationID string) error {
	return s.markSynced(ctx, "observations", observationID)
}

func (s *Store) markSynced(ctx context.Context, table, id string) error {
	res, err := s.DB.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET synced = 1, updated_at = ? WHERE id = ?`, table),
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to mark %s row synced: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s row not found: %s", table, id)
	}
	return nil
}

// DeleteHike removes the hike row; observation rows cascade via the foreign
// key.
func (s *Store) DeleteHike(ctx context.Context, hikeID string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM hikes WHERE id = ?`, hikeID); err != nil {
		return fmt.Errorf("failed to delete hike %s: %w", hikeID, err)
	}
	return nil
}

const hikeSelect = `
	SELECT id, owner_id, name, location_name, latitude, longitude, date,
	       length_km, difficulty, parking, description, terrain, group_size,
	       cover_image, images, created_at, updated_at, synced
	FROM hikes`

type scanner interface {
	Scan(dest ...any) error
}

func scanHike(row scanner) (hikesync.Hike, error) {
	var (
		h                      hikesync.Hike
		date, created, updated string
		difficulty, images     string
		lat, lon               sql.NullFloat64
		parking, synced        int
	)
	err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.LocationName, &lat, &lon,
		&date, &h.LengthKm, &difficulty, &parking, &h.Description, &h.Terrain,
		&h.GroupSize, &h.CoverImage, &images, &created, &updated, &synced)
	if err != nil {
		return hikesync.Hike{}, err
	}
	if h.Date, err = parseTime(date); err != nil {
		return hikesync.Hike{}, err
	}
	if h.CreatedAt, err = parseTime(created); err != nil {
		return hikesync.Hike{}, err
	}
	if h.UpdatedAt, err = parseTime(updated); err != nil {
		return hikesync.Hike{}, err
	}
	if h.Images, err = hikesync.DecodeImageList(images); err != nil {
		return hikesync.Hike{}, err
	}
	h.Coordinates = coordsFromNullable(lat, lon)
	h.Difficulty = hikesync.Difficulty(difficulty)
	h.Parking = parking != 0
	h.Synced = synced != 0
	return h, nil
}

func coordsFromNullable(lat, lon sql.NullFloat64) *hikesync.Coordinates {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &hikesync.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
