package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/goloanme/backend/internal/models"
)

const (
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// translatePQError maps constraint violations onto store sentinels.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqForeignKeyViolation:
		return fmt.Errorf("%s: %w", pqErr.Constraint, ErrNotFound)
	case pqCheckViolation:
		return fmt.Errorf("%s: %w", pqErr.Constraint, ErrInvalidEntry)
	}
	return err
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgStore struct {
	db   *sql.DB
	q    querier
	inTx bool
	now  func() time.Time
}

// NewPostgresStore creates a Postgres-backed store over an open pool.
func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db, q: db, now: time.Now}
}

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgStore{db: s.db, q: tx, inTx: true, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close() error {
	return s.db.Close()
}

const accountColumns = `id, owner_kind, owner_id, balance, version, created_at, updated_at`

func scanAccount(row interface{ Scan(dest ...any) error }) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.OwnerKind, &account.OwnerID, &account.Balance,
		&account.Version, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *pgStore) CreateAccount(ctx context.Context, kind models.OwnerKind, ownerID string, initialBalance int64) (*models.Account, bool, error) {
	now := s.now().UTC()
	account, err := scanAccount(s.q.QueryRowContext(ctx, `
		INSERT INTO accounts (id, owner_kind, owner_id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		ON CONFLICT (owner_kind, owner_id) DO NOTHING
		RETURNING `+accountColumns,
		newAccountID(), string(kind), ownerID, initialBalance, now))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}
	return account, true, nil
}

func (s *pgStore) FindAccount(ctx context.Context, kind models.OwnerKind, ownerID string) (*models.Account, error) {
	account, err := scanAccount(s.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE owner_kind = $1 AND owner_id = $2`, string(kind), ownerID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, err
}

func (s *pgStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := scanAccount(s.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, accountID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, err
}

func (s *pgStore) LockAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := scanAccount(s.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, err
}

func (s *pgStore) UpdateAccountBalance(ctx context.Context, accountID string, newBalance int64, version int) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, s.now().UTC(), accountID, version)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", translatePQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrVersionConflict)
	}

	return nil
}

const entryColumns = `id, account_id, direction, amount, ref_kind, ref_id, created_at`

func scanEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Direction, &entry.Amount,
			&entry.RefKind, &entry.RefID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *pgStore) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	entry.ID, entry.CreatedAt = newEntryID()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, direction, amount, ref_kind, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.AccountID, string(entry.Direction), entry.Amount,
		string(entry.RefKind), entry.RefID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", translatePQError(err))
	}
	return nil
}

func (s *pgStore) SumEntries(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return sum, nil
}

func (s *pgStore) ListEntries(ctx context.Context, accountID string, limit int, cursor string) (*models.EntryPage, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		rows, err = s.q.QueryContext(ctx, `
			SELECT `+entryColumns+`
			FROM ledger_entries
			WHERE account_id = $1
			ORDER BY id DESC
			LIMIT $2`, accountID, limit+1)
	} else {
		rows, err = s.q.QueryContext(ctx, `
			SELECT `+entryColumns+`
			FROM ledger_entries
			WHERE account_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`, accountID, cursor, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entries: %w", err)
	}
	return pageOf(entries, limit), nil
}

func (s *pgStore) EntriesByReference(ctx context.Context, kind models.RefKind, refID string) ([]models.LedgerEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE ref_kind = $1 AND ref_id = $2
		ORDER BY id ASC`, string(kind), refID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by reference: %w", err)
	}

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entries: %w", err)
	}
	return entries, nil
}

const pledgeColumns = `id, post_id, pledger_id, type, amount, terms_id, note, created_at`

func scanPledge(row interface{ Scan(dest ...any) error }) (*models.Pledge, error) {
	var (
		pledge  models.Pledge
		termsID sql.NullString
		note    sql.NullString
	)
	err := row.Scan(&pledge.ID, &pledge.PostID, &pledge.PledgerID, &pledge.Type,
		&pledge.Amount, &termsID, &note, &pledge.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if termsID.Valid {
		pledge.TermsID = &termsID.String
	}
	if note.Valid {
		pledge.Note = &note.String
	}
	return &pledge, nil
}

func (s *pgStore) CreatePledge(ctx context.Context, pledge *models.Pledge) error {
	pledge.ID = newPledgeID()
	pledge.CreatedAt = s.now().UTC()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO pledges (id, post_id, pledger_id, type, amount, terms_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pledge.ID, pledge.PostID, pledge.PledgerID, string(pledge.Type), pledge.Amount,
		pledge.TermsID, pledge.Note, pledge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pledge: %w", err)
	}
	return nil
}

func (s *pgStore) GetPledge(ctx context.Context, pledgeID string) (*models.Pledge, error) {
	pledge, err := scanPledge(s.q.QueryRowContext(ctx, `
		SELECT `+pledgeColumns+`
		FROM pledges
		WHERE id = $1`, pledgeID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get pledge: %w", err)
	}
	return pledge, err
}

func (s *pgStore) DeletePledge(ctx context.Context, pledgeID string) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM pledges WHERE id = $1`, pledgeID)
	if err != nil {
		return fmt.Errorf("failed to delete pledge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) ListPledges(ctx context.Context, postID string) ([]models.Pledge, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+pledgeColumns+`
		FROM pledges
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pledges: %w", err)
	}
	defer rows.Close()

	pledges := []models.Pledge{}
	for rows.Next() {
		pledge, err := scanPledge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pledge: %w", err)
		}
		pledges = append(pledges, *pledge)
	}
	return pledges, rows.Err()
}
