// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikeserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// PgDocumentStore persists journal documents as JSONB rows in Postgres.
type PgDocumentStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPgDocumentStore wraps an existing connection pool and creates the
// journal tables if they are missing.
func NewPgDocumentStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PgDocumentStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	store := &PgDocumentStore{pool: pool, logger: logger}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PgDocumentStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS journal_hikes (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS journal_observations (
			id         TEXT PRIMARY KEY,
			hike_id    TEXT NOT NULL REFERENCES journal_hikes(id) ON DELETE CASCADE,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_hikes_owner ON journal_hikes(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_observations_hike ON journal_observations(hike_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize journal schema: %w", err)
		}
	}
	return nil
}

// UpsertHike writes the hike document; rewriting the same id replaces the
// document, which makes retried migration attempts converge.
func (s *PgDocumentStore) UpsertHike(ctx context.Context, hike hikesync.Hike) error {
	doc, err := json.Marshal(hike)
	if err != nil {
		return fmt.Errorf("failed to marshal hike %s: %w", hike.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO journal_hikes (id, owner_id, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, hike.ID, hike.OwnerID, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert hike %s: %w", hike.ID, err)
	}
	return nil
}

// UpsertObservation writes the observation document under the same
// idempotency contract as UpsertHike.
func (s *PgDocumentStore) UpsertObservation(ctx context.Context, obs hikesync.Observation) error {
	doc, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal observation %s: %w", obs.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO journal_observations (id, hike_id, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, obs.ID, obs.HikeID, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert observation %s: %w", obs.ID, err)
	}
	return nil
}

// GetHikeOwner reports existence and ownership of a hike document.
func (s *PgDocumentStore) GetHikeOwner(ctx context.Context, hikeID string) (string, bool, error) {
	var ownerID string
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id FROM journal_hikes WHERE id = $1`, hikeID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query hike %s: %w", hikeID, err)
	}
	return ownerID, true, nil
}
