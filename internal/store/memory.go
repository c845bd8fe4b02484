package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goloanme/backend/internal/models"
)

type memoryState struct {
	accounts map[string]models.Account
	owners   map[string]string
	entries  []models.LedgerEntry
	pledges  map[string]models.Pledge
}

func (m *memoryState) clone() *memoryState {
	c := &memoryState{
		accounts: make(map[string]models.Account, len(m.accounts)),
		owners:   make(map[string]string, len(m.owners)),
		entries:  make([]models.LedgerEntry, len(m.entries)),
		pledges:  make(map[string]models.Pledge, len(m.pledges)),
	}
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	for k, v := range m.owners {
		c.owners[k] = v
	}
	copy(c.entries, m.entries)
	for k, v := range m.pledges {
		c.pledges[k] = v
	}
	return c
}

// MemoryStore keeps everything in process. Committed state is never mutated
// in place: WithTx works on a copy and swaps it in only when the callback
// succeeds, so readers only need the current pointer.
type MemoryStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *memoryState
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			accounts: make(map[string]models.Account),
			owners:   make(map[string]string),
			pledges:  make(map[string]models.Pledge),
		},
		now: time.Now,
	}
}

// memoryView is a Tx over one state snapshot.
type memoryView struct {
	state *memoryState
	now   func() time.Time
}

func (s *MemoryStore) snapshot() *memoryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memoryView{state: s.state, now: s.now}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// One writer at a time, matching row locks held for the whole transaction.
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	working := s.state.clone()
	s.mu.Unlock()

	if err := fn(&memoryView{state: working, now: s.now}); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Ping(context.Context) error    { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) CreateAccount(ctx context.Context, kind models.OwnerKind, ownerID string, initialBalance int64) (account *models.Account, created bool, err error) {
	err = s.WithTx(ctx, func(tx Tx) error {
		account, created, err = tx.CreateAccount(ctx, kind, ownerID, initialBalance)
		return err
	})
	return account, created, err
}

func (s *MemoryStore) FindAccount(ctx context.Context, kind models.OwnerKind, ownerID string) (*models.Account, error) {
	return s.snapshot().FindAccount(ctx, kind, ownerID)
}

func (s *MemoryStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return s.snapshot().GetAccount(ctx, accountID)
}

func (s *MemoryStore) LockAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return s.snapshot().LockAccount(ctx, accountID)
}

func (s *MemoryStore) UpdateAccountBalance(ctx context.Context, accountID string, newBalance int64, version int) error {
	return s.WithTx(ctx, func(tx Tx) error {
		return tx.UpdateAccountBalance(ctx, accountID, newBalance, version)
	})
}

func (s *MemoryStore) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateEntry(ctx, entry)
	})
}

func (s *MemoryStore) SumEntries(ctx context.Context, accountID string) (int64, error) {
	return s.snapshot().SumEntries(ctx, accountID)
}

func (s *MemoryStore) ListEntries(ctx context.Context, accountID string, limit int, cursor string) (*models.EntryPage, error) {
	return s.snapshot().ListEntries(ctx, accountID, limit, cursor)
}

func (s *MemoryStore) EntriesByReference(ctx context.Context, kind models.RefKind, refID string) ([]models.LedgerEntry, error) {
	return s.snapshot().EntriesByReference(ctx, kind, refID)
}

func (s *MemoryStore) CreatePledge(ctx context.Context, pledge *models.Pledge) error {
	return s.WithTx(ctx, func(tx Tx) error {
		return tx.CreatePledge(ctx, pledge)
	})
}

func (s *MemoryStore) GetPledge(ctx context.Context, pledgeID string) (*models.Pledge, error) {
	return s.snapshot().GetPledge(ctx, pledgeID)
}

func (s *MemoryStore) DeletePledge(ctx context.Context, pledgeID string) error {
	return s.WithTx(ctx, func(tx Tx) error {
		return tx.DeletePledge(ctx, pledgeID)
	})
}

func (s *MemoryStore) ListPledges(ctx context.Context, postID string) ([]models.Pledge, error) {
	return s.snapshot().ListPledges(ctx, postID)
}

func ownerKey(kind models.OwnerKind, ownerID string) string {
	return string(kind) + ":" + ownerID
}

func (v *memoryView) CreateAccount(_ context.Context, kind models.OwnerKind, ownerID string, initialBalance int64) (*models.Account, bool, error) {
	key := ownerKey(kind, ownerID)
	if _, ok := v.state.owners[key]; ok {
		return nil, false, nil
	}

	now := v.now().UTC()
	account := models.Account{
		ID:        newAccountID(),
		OwnerKind: kind,
		OwnerID:   ownerID,
		Balance:   initialBalance,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.state.accounts[account.ID] = account
	v.state.owners[key] = account.ID
	return &account, true, nil
}

func (v *memoryView) FindAccount(_ context.Context, kind models.OwnerKind, ownerID string) (*models.Account, error) {
	id, ok := v.state.owners[ownerKey(kind, ownerID)]
	if !ok {
		return nil, ErrNotFound
	}
	account := v.state.accounts[id]
	return &account, nil
}

func (v *memoryView) GetAccount(_ context.Context, accountID string) (*models.Account, error) {
	account, ok := v.state.accounts[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (v *memoryView) LockAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return v.GetAccount(ctx, accountID)
}

func (v *memoryView) UpdateAccountBalance(_ context.Context, accountID string, newBalance int64, version int) error {
	account, ok := v.state.accounts[accountID]
	if !ok || account.Version != version {
		return ErrVersionConflict
	}
	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = v.now().UTC()
	v.state.accounts[accountID] = account
	return nil
}

func (v *memoryView) CreateEntry(_ context.Context, entry *models.LedgerEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	if _, ok := v.state.accounts[entry.AccountID]; !ok {
		return ErrNotFound
	}
	entry.ID, entry.CreatedAt = newEntryID()
	v.state.entries = append(v.state.entries, *entry)
	return nil
}

func (v *memoryView) SumEntries(_ context.Context, accountID string) (int64, error) {
	var sum int64
	for _, entry := range v.state.entries {
		if entry.AccountID == accountID {
			sum += entry.Signed()
		}
	}
	return sum, nil
}

func (v *memoryView) ListEntries(_ context.Context, accountID string, limit int, cursor string) (*models.EntryPage, error) {
	var matched []models.LedgerEntry
	for _, entry := range v.state.entries {
		if entry.AccountID != accountID {
			continue
		}
		if cursor != "" && entry.ID >= cursor {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if len(matched) > limit+1 {
		matched = matched[:limit+1]
	}
	return pageOf(matched, limit), nil
}

func (v *memoryView) EntriesByReference(_ context.Context, kind models.RefKind, refID string) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	for _, entry := range v.state.entries {
		if entry.RefKind == kind && entry.RefID == refID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (v *memoryView) CreatePledge(_ context.Context, pledge *models.Pledge) error {
	pledge.ID = newPledgeID()
	pledge.CreatedAt = v.now().UTC()
	v.state.pledges[pledge.ID] = *pledge
	return nil
}

func (v *memoryView) GetPledge(_ context.Context, pledgeID string) (*models.Pledge, error) {
	pledge, ok := v.state.pledges[pledgeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &pledge, nil
}

func (v *memoryView) DeletePledge(_ context.Context, pledgeID string) error {
	if _, ok := v.state.pledges[pledgeID]; !ok {
		return ErrNotFound
	}
	delete(v.state.pledges, pledgeID)
	return nil
}

func (v *memoryView) ListPledges(_ context.Context, postID string) ([]models.Pledge, error) {
	pledges := []models.Pledge{}
	for _, pledge := range v.state.pledges {
		if pledge.PostID == postID {
			pledges = append(pledges, pledge)
		}
	}
	sort.Slice(pledges, func(i, j int) bool {
		if pledges[i].CreatedAt.Equal(pledges[j].CreatedAt) {
			return pledges[i].ID > pledges[j].ID
		}
		return pledges[i].CreatedAt.After(pledges[j].CreatedAt)
	})
	return pledges, nil
}
