package postgres

import (
	"context"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id                TEXT PRIMARY KEY,
		role              TEXT NOT NULL CHECK (role IN ('buyer', 'seller', 'vendor', 'admin')),
		full_name         TEXT NOT NULL DEFAULT '',
		email             TEXT NOT NULL DEFAULT '',
		phone             TEXT,
		company           TEXT,
		location          TEXT,
		is_active         BOOLEAN NOT NULL DEFAULT TRUE,
		last_active_at    TIMESTAMPTZ,
		preferences       JSONB,
		financing_details JSONB,
		experience_years  INTEGER,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS business_listings (
		id             TEXT PRIMARY KEY,
		seller_id      TEXT NOT NULL REFERENCES profiles (id),
		title          TEXT NOT NULL DEFAULT '',
		business_type  TEXT,
		asking_price   NUMERIC(14, 2) NOT NULL DEFAULT 0,
		location       TEXT,
		city           TEXT,
		state          TEXT,
		annual_revenue NUMERIC(14, 2),
		employees      INTEGER,
		status         TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'sold', 'withdrawn')),
		timeline       TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_active ON business_listings (created_at DESC) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                  TEXT PRIMARY KEY,
		buyer_id            TEXT NOT NULL,
		seller_id           TEXT NOT NULL,
		listing_id          TEXT NOT NULL,
		compatibility_score INTEGER NOT NULL CHECK (compatibility_score BETWEEN 0 AND 100),
		match_reasons       TEXT[] NOT NULL DEFAULT '{}',
		score_breakdown     JSONB NOT NULL DEFAULT '{}',
		status              TEXT NOT NULL DEFAULT 'generated',
		quality_score       INTEGER CHECK (quality_score BETWEEN 0 AND 100),
		algorithm_version   TEXT NOT NULL,
		notes               TEXT,
		generated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_matches_active_pair
		ON matches (buyer_id, seller_id, listing_id) WHERE status <> 'expired'`,
	`CREATE INDEX IF NOT EXISTS idx_matches_buyer ON matches (buyer_id, generated_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_seller ON matches (seller_id, generated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS match_feedback (
		id            TEXT PRIMARY KEY,
		match_id      TEXT NOT NULL REFERENCES matches (id),
		user_id       TEXT NOT NULL,
		rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		feedback_type TEXT NOT NULL,
		comments      TEXT,
		helpful       BOOLEAN,
		reasons       TEXT[] NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_match ON match_feedback (match_id)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_user ON match_feedback (user_id)`,
	`CREATE TABLE IF NOT EXISTS match_interactions (
		id               TEXT PRIMARY KEY,
		match_id         TEXT NOT NULL REFERENCES matches (id),
		user_id          TEXT NOT NULL,
		interaction_type TEXT NOT NULL,
		metadata         JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_match ON match_interactions (match_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS matching_learning_data (
		id                  TEXT PRIMARY KEY,
		match_id            TEXT NOT NULL,
		user_id             TEXT NOT NULL,
		compatibility_score INTEGER NOT NULL,
		score_breakdown     JSONB NOT NULL,
		rating              INTEGER NOT NULL,
		feedback_type       TEXT NOT NULL,
		helpful             BOOLEAN,
		reasons             TEXT[] NOT NULL DEFAULT '{}',
		algorithm_version   TEXT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		type       TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		priority   TEXT,
		data       JSONB,
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC)`,
}

// Migrate creates the tables and indexes the service reads and writes.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("migrate", err)
	}
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return classify("migrate", fmt.Errorf("statement %d: %w", i+1, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return classify("migrate", err)
	}
	s.logger.Info("Schema migrated", map[string]interface{}{"statements": len(schema)})
	return nil
}
