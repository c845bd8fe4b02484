// Package store persists accounts, ledger entries and pledges.
//
// Two implementations exist: Postgres (production) and an in-memory store
// used by tests and local tooling. Both serialise WithTx callbacks so that a
// failed callback leaves no trace.
package store

import (
	"context"
	"errors"

	"github.com/goloanme/backend/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("store: not found")

	// ErrVersionConflict is returned when an optimistic balance update loses a race
	ErrVersionConflict = errors.New("store: version conflict")

	// ErrInvalidEntry is returned when an entry fails its shape checks
	ErrInvalidEntry = errors.New("store: invalid ledger entry")
)

// AccountStore persists Account rows keyed by (owner kind, owner id).
type AccountStore interface {
	// CreateAccount inserts an account unless one exists for the owner.
	// created is false when the row already existed; acct is then nil.
	CreateAccount(ctx context.Context, kind models.OwnerKind, ownerID string, initialBalance int64) (acct *models.Account, created bool, err error)
	FindAccount(ctx context.Context, kind models.OwnerKind, ownerID string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	// LockAccount reads an account and holds a row lock until the transaction ends.
	LockAccount(ctx context.Context, accountID string) (*models.Account, error)
	UpdateAccountBalance(ctx context.Context, accountID string, newBalance int64, version int) error
}

// EntryStore is the append-only ledger log. There is no update or delete.
type EntryStore interface {
	// CreateEntry assigns ID and CreatedAt and appends the entry.
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	SumEntries(ctx context.Context, accountID string) (int64, error)
	ListEntries(ctx context.Context, accountID string, limit int, cursor string) (*models.EntryPage, error)
	EntriesByReference(ctx context.Context, kind models.RefKind, refID string) ([]models.LedgerEntry, error)
}

// PledgeStore persists pledge records.
type PledgeStore interface {
	CreatePledge(ctx context.Context, pledge *models.Pledge) error
	GetPledge(ctx context.Context, pledgeID string) (*models.Pledge, error)
	DeletePledge(ctx context.Context, pledgeID string) error
	ListPledges(ctx context.Context, postID string) ([]models.Pledge, error)
}

// Tx is the view of the store available inside WithTx.
type Tx interface {
	AccountStore
	EntryStore
	PledgeStore
}

// Store is the unified storage interface.
type Store interface {
	Tx

	// WithTx runs fn in one transaction. fn's error rolls everything back
	// and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// pageOf trims a limit+1 result into a page. nextCursor is the id of the
// last returned entry when more rows exist.
func pageOf(entries []models.LedgerEntry, limit int) *models.EntryPage {
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	if len(entries) <= limit {
		return &models.EntryPage{Items: entries}
	}
	items := entries[:limit]
	next := items[len(items)-1].ID
	return &models.EntryPage{Items: items, NextCursor: &next}
}

func validateEntry(entry *models.LedgerEntry) error {
	switch {
	case entry == nil:
		return ErrInvalidEntry
	case entry.Amount <= 0:
		return ErrInvalidEntry
	case !entry.Direction.Valid(), !entry.RefKind.Valid():
		return ErrInvalidEntry
	case entry.AccountID == "", entry.RefID == "":
		return ErrInvalidEntry
	}
	return nil
}
