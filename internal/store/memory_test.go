package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goloanme/backend/internal/models"
)

func TestMemoryStore_CreateAccount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, created, err := s.CreateAccount(ctx, models.OwnerUser, "u1", 1000)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = s.CreateAccount(ctx, models.OwnerUser, "u1", 1000)
	require.NoError(t, err)
	assert.False(t, created)

	// same owner id under a different kind is a different account
	other, created, err := s.CreateAccount(ctx, models.OwnerPost, "u1", 0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)

	found, err := s.FindAccount(ctx, models.OwnerUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestMemoryStore_ConcurrentCreateAccount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.CreateAccount(ctx, models.OwnerUser, "same", 0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryStore_WithTxRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	account, _, err := s.CreateAccount(ctx, models.OwnerUser, "u1", 0)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx Tx) error {
		entry := &models.LedgerEntry{AccountID: account.ID, Direction: models.Credit, Amount: 50, RefKind: models.RefTransfer, RefID: "t1"}
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, account.ID, 50, account.Version); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	sum, err := s.SumEntries(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)

	after, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.Balance)
	assert.Equal(t, account.Version, after.Version)

	refs, err := s.EntriesByReference(ctx, models.RefTransfer, "t1")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestMemoryStore_VersionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	account, _, err := s.CreateAccount(ctx, models.OwnerUser, "u1", 0)
	require.NoError(t, err)

	require.NoError(t, s.UpdateAccountBalance(ctx, account.ID, 10, account.Version))
	assert.ErrorIs(t, s.UpdateAccountBalance(ctx, account.ID, 20, account.Version), ErrVersionConflict)
}

func TestMemoryStore_ListEntriesPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	account, _, err := s.CreateAccount(ctx, models.OwnerUser, "u1", 0)
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 5; i++ {
		entry := &models.LedgerEntry{AccountID: account.ID, Direction: models.Credit, Amount: int64(i + 1), RefKind: models.RefTransfer, RefID: "seed"}
		require.NoError(t, s.CreateEntry(ctx, entry))
		ids = append(ids, entry.ID)
	}

	page, err := s.ListEntries(ctx, account.ID, 2, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID)
	assert.Equal(t, ids[3], page.Items[1].ID)
	require.NotNil(t, page.NextCursor)

	page, err = s.ListEntries(ctx, account.ID, 2, *page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	require.NotNil(t, page.NextCursor)

	page, err = s.ListEntries(ctx, account.ID, 2, *page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestMemoryStore_CreateEntryValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tests := []struct {
		name  string
		entry *models.LedgerEntry
		want  error
	}{
		{"nil entry", nil, ErrInvalidEntry},
		{"negative amount", &models.LedgerEntry{AccountID: "a", Direction: models.Credit, Amount: -5, RefKind: models.RefPledge, RefID: "r"}, ErrInvalidEntry},
		{"bad direction", &models.LedgerEntry{AccountID: "a", Direction: "sideways", Amount: 5, RefKind: models.RefPledge, RefID: "r"}, ErrInvalidEntry},
		{"bad ref kind", &models.LedgerEntry{AccountID: "a", Direction: models.Credit, Amount: 5, RefKind: "gift", RefID: "r"}, ErrInvalidEntry},
		{"missing ref id", &models.LedgerEntry{AccountID: "a", Direction: models.Credit, Amount: 5, RefKind: models.RefPledge}, ErrInvalidEntry},
		{"unknown account", &models.LedgerEntry{AccountID: "a", Direction: models.Credit, Amount: 5, RefKind: models.RefPledge, RefID: "r"}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.CreateEntry(ctx, tt.entry), tt.want)
		})
	}
}

func TestMemoryStore_Pledges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p1 := &models.Pledge{PostID: "post-1", PledgerID: "u1", Type: models.PledgeDonation, Amount: 10}
	p2 := &models.Pledge{PostID: "post-1", PledgerID: "u2", Type: models.PledgeDonation, Amount: 20}
	p3 := &models.Pledge{PostID: "post-2", PledgerID: "u1", Type: models.PledgeDonation, Amount: 30}
	for _, p := range []*models.Pledge{p1, p2, p3} {
		require.NoError(t, s.CreatePledge(ctx, p))
	}

	pledges, err := s.ListPledges(ctx, "post-1")
	require.NoError(t, err)
	assert.Len(t, pledges, 2)

	require.NoError(t, s.DeletePledge(ctx, p1.ID))
	_, err = s.GetPledge(ctx, p1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePledge(ctx, p1.ID), ErrNotFound)
}
