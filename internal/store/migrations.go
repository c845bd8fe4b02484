package store

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id          TEXT PRIMARY KEY,
		owner_kind  TEXT NOT NULL CHECK (owner_kind IN ('user', 'post')),
		owner_id    TEXT NOT NULL,
		balance     BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version     INTEGER NOT NULL DEFAULT 1,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_kind, owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL REFERENCES accounts (id),
		direction   TEXT NOT NULL CHECK (direction IN ('credit', 'debit')),
		amount      BIGINT NOT NULL CHECK (amount > 0),
		ref_kind    TEXT NOT NULL CHECK (ref_kind IN ('pledge', 'transfer', 'repayment')),
		ref_id      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_id ON ledger_entries (account_id, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_ref ON ledger_entries (ref_kind, ref_id)`,
	`CREATE TABLE IF NOT EXISTS pledges (
		id          TEXT PRIMARY KEY,
		post_id     TEXT NOT NULL,
		pledger_id  TEXT NOT NULL,
		type        TEXT NOT NULL CHECK (type IN ('donation', 'contract')),
		amount      BIGINT NOT NULL CHECK (amount > 0),
		terms_id    TEXT,
		note        TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pledges_post_id ON pledges (post_id)`,
}

// Migrate creates the ledger schema. Every statement is idempotent.
func (s *pgStore) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
