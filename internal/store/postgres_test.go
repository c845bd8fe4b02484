package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goloanme/backend/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*pgStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStore(db).(*pgStore)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_kind", "owner_id", "balance", "version", "created_at", "updated_at"})
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "account_id", "direction", "amount", "ref_kind", "ref_id", "created_at"})
}

func TestPostgresStore_CreateAccount(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	t.Run("inserts new account", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO accounts .* ON CONFLICT \\(owner_kind, owner_id\\) DO NOTHING RETURNING").
			WithArgs(sqlmock.AnyArg(), "user", "u1", int64(1000), fixedNow).
			WillReturnRows(accountRows().AddRow("acc-1", "user", "u1", 1000, 1, fixedNow, fixedNow))

		account, created, err := s.CreateAccount(ctx, models.OwnerUser, "u1", 1000)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "acc-1", account.ID)
		assert.Equal(t, int64(1000), account.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing owner returns not created", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), "user", "u1", int64(0), fixedNow).
			WillReturnRows(accountRows())

		account, created, err := s.CreateAccount(ctx, models.OwnerUser, "u1", 0)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_FindAccount(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM accounts WHERE owner_kind = \\$1 AND owner_id = \\$2").
			WithArgs("post", "p1").
			WillReturnError(sql.ErrNoRows)

		_, err := s.FindAccount(ctx, models.OwnerPost, "p1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM accounts WHERE owner_kind = \\$1 AND owner_id = \\$2").
			WithArgs("post", "p1").
			WillReturnError(errors.New("connection reset"))

		_, err := s.FindAccount(ctx, models.OwnerPost, "p1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "failed to find account")
	})
}

func TestPostgresStore_LockAccount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+accountColumns+" FROM accounts WHERE id = $1 FOR UPDATE")).
		WithArgs("acc-1").
		WillReturnRows(accountRows().AddRow("acc-1", "user", "u1", 5000, 3, fixedNow, fixedNow))

	account, err := s.LockAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), account.Balance)
	assert.Equal(t, 3, account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateAccountBalance(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)
	update := "UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4"

	t.Run("successful update", func(t *testing.T) {
		mock.ExpectExec(update).
			WithArgs(int64(4000), fixedNow, "acc-1", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.UpdateAccountBalance(ctx, "acc-1", 4000, 1))
	})

	t.Run("optimistic lock failure", func(t *testing.T) {
		mock.ExpectExec(update).
			WithArgs(int64(4000), fixedNow, "acc-1", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateAccountBalance(ctx, "acc-1", 4000, 1)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("check violation", func(t *testing.T) {
		mock.ExpectExec(update).
			WithArgs(int64(-1), fixedNow, "acc-1", 1).
			WillReturnError(&pq.Error{Code: pqCheckViolation, Constraint: "accounts_balance_check"})

		err := s.UpdateAccountBalance(ctx, "acc-1", -1, 1)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateEntry(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	t.Run("assigns id and timestamp", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(sqlmock.AnyArg(), "acc-1", "debit", int64(300), "pledge", "p1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		entry := &models.LedgerEntry{AccountID: "acc-1", Direction: models.Debit, Amount: 300, RefKind: models.RefPledge, RefID: "p1"}
		require.NoError(t, s.CreateEntry(ctx, entry))
		assert.Len(t, entry.ID, 26)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("rejects non-positive amount without touching the database", func(t *testing.T) {
		entry := &models.LedgerEntry{AccountID: "acc-1", Direction: models.Debit, Amount: 0, RefKind: models.RefPledge, RefID: "p1"}
		assert.ErrorIs(t, s.CreateEntry(ctx, entry), ErrInvalidEntry)
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "ledger_entries_account_id_fkey"})

		entry := &models.LedgerEntry{AccountID: "missing", Direction: models.Credit, Amount: 1, RefKind: models.RefTransfer, RefID: "t1"}
		assert.ErrorIs(t, s.CreateEntry(ctx, entry), ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SumEntries(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(CASE WHEN direction = 'credit' THEN amount ELSE -amount END\\), 0\\) FROM ledger_entries WHERE account_id = \\$1").
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(-100))

	sum, err := s.SumEntries(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-100), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEntries(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	t.Run("first page with more rows", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM ledger_entries WHERE account_id = \\$1 ORDER BY id DESC LIMIT \\$2").
			WithArgs("acc-1", 3).
			WillReturnRows(entryRows().
				AddRow("03", "acc-1", "debit", 10, "pledge", "p3", fixedNow).
				AddRow("02", "acc-1", "debit", 10, "pledge", "p2", fixedNow).
				AddRow("01", "acc-1", "credit", 1000, "transfer", "acc-1", fixedNow))

		page, err := s.ListEntries(ctx, "acc-1", 2, "")
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, "02", *page.NextCursor)
	})

	t.Run("cursor page exhausted", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM ledger_entries WHERE account_id = \\$1 AND id < \\$2 ORDER BY id DESC LIMIT \\$3").
			WithArgs("acc-1", "02", 3).
			WillReturnRows(entryRows().
				AddRow("01", "acc-1", "credit", 1000, "transfer", "acc-1", fixedNow))

		page, err := s.ListEntries(ctx, "acc-1", 2, "02")
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Nil(t, page.NextCursor)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WithTx(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	t.Run("commits on success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM pledges WHERE id = \\$1").
			WithArgs("pl-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := s.WithTx(ctx, func(tx Tx) error {
			return tx.DeletePledge(ctx, "pl-1")
		})
		assert.NoError(t, err)
	})

	t.Run("rolls back and returns callback error", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := s.WithTx(ctx, func(tx Tx) error { return boom })
		assert.Equal(t, boom, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Pledges(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)
	terms := "terms-1"

	t.Run("create", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO pledges").
			WithArgs(sqlmock.AnyArg(), "post-1", "u1", "contract", int64(50), &terms, nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		pledge := &models.Pledge{PostID: "post-1", PledgerID: "u1", Type: models.PledgeContract, Amount: 50, TermsID: &terms}
		require.NoError(t, s.CreatePledge(ctx, pledge))
		assert.NotEmpty(t, pledge.ID)
		assert.Equal(t, fixedNow, pledge.CreatedAt)
	})

	t.Run("list maps nullable columns", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM pledges WHERE post_id = \\$1 ORDER BY created_at DESC, id DESC").
			WithArgs("post-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "pledger_id", "type", "amount", "terms_id", "note", "created_at"}).
				AddRow("pl-2", "post-1", "u2", "donation", 10, nil, "thanks", fixedNow).
				AddRow("pl-1", "post-1", "u1", "contract", 50, "terms-1", nil, fixedNow))

		pledges, err := s.ListPledges(ctx, "post-1")
		require.NoError(t, err)
		require.Len(t, pledges, 2)
		assert.Nil(t, pledges[0].TermsID)
		require.NotNil(t, pledges[0].Note)
		assert.Equal(t, "thanks", *pledges[0].Note)
		require.NotNil(t, pledges[1].TermsID)
		assert.Equal(t, "terms-1", *pledges[1].TermsID)
	})

	t.Run("delete missing pledge", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM pledges WHERE id = \\$1").
			WithArgs("nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.DeletePledge(ctx, "nope"), ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)

	for range migrations {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
