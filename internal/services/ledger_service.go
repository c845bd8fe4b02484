package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/audit"
	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/models"
	"github.com/goloanme/backend/internal/store"
)

// LedgerOptions carries the configurable limits of the engine.
type LedgerOptions struct {
	MaxFundAmount   int64
	DefaultPageSize int
	MaxPageSize     int
}

func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{
		MaxFundAmount:   10000,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// LedgerService is the only writer of ledger entries and cached balances.
type LedgerService struct {
	store    store.Store
	audit    *audit.Logger
	opts     LedgerOptions
	newRefID func() string
}

func NewLedgerService(st store.Store, auditLogger *audit.Logger, opts LedgerOptions) *LedgerService {
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &LedgerService{
		store:    st,
		audit:    auditLogger,
		opts:     opts,
		newRefID: uuid.NewString,
	}
}

func validateOwner(kind models.OwnerKind, ownerID string) error {
	if !kind.Valid() {
		return newValidationError("ownerType", "must be user or post", ErrInvalidOwner)
	}
	if strings.TrimSpace(ownerID) == "" {
		return newValidationError("ownerId", "is required", ErrInvalidOwner)
	}
	return nil
}

func validateReference(kind models.RefKind, refID string) error {
	if !kind.Valid() {
		return newValidationError("refType", "must be pledge, transfer or repayment", ErrInvalidReference)
	}
	if strings.TrimSpace(refID) == "" {
		return newValidationError("refId", "is required", ErrInvalidReference)
	}
	return nil
}

// GetOrCreateAccount returns the owner's account id, creating the account
// on first use. A positive initial balance is booked as an opening credit
// so the entry sum matches the cached balance.
func (s *LedgerService) GetOrCreateAccount(ctx context.Context, kind models.OwnerKind, ownerID string, initialBalance int64) (string, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return "", err
	}
	if initialBalance < 0 {
		return "", newValidationError("initialBalance", "must not be negative", ErrInvalidAmount)
	}

	existing, err := s.store.FindAccount(ctx, kind, ownerID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	var (
		accountID string
		opened    bool
	)
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		account, created, err := tx.CreateAccount(ctx, kind, ownerID, initialBalance)
		if err != nil {
			return err
		}
		if !created {
			// lost the race to a concurrent creator
			account, err = tx.FindAccount(ctx, kind, ownerID)
			if err != nil {
				return fmt.Errorf("failed to load concurrently created account: %w", err)
			}
			accountID = account.ID
			return nil
		}

		accountID, opened = account.ID, true
		if initialBalance == 0 {
			return nil
		}
		return tx.CreateEntry(ctx, &models.LedgerEntry{
			AccountID: account.ID,
			Direction: models.Credit,
			Amount:    initialBalance,
			RefKind:   models.RefTransfer,
			RefID:     account.ID,
		})
	})
	if err != nil {
		return "", err
	}

	if opened {
		s.audit.LogAccountOpened(accountID, string(kind), ownerID, initialBalance)
	}
	return accountID, nil
}

// GetBalance recomputes the balance from entries, floored at zero. An owner
// without an account has a balance of zero.
func (s *LedgerService) GetBalance(ctx context.Context, kind models.OwnerKind, ownerID string) (int64, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return 0, err
	}

	account, err := s.store.FindAccount(ctx, kind, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	sum, err := s.store.SumEntries(ctx, account.ID)
	if err != nil {
		return 0, err
	}
	return max(sum, 0), nil
}

// Transfer moves amount from one account to another, writing one debit and
// one credit tagged with the same reference. Nothing is written on failure.
func (s *LedgerService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount int64, refKind models.RefKind, refID string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, newValidationError("amountGLM", "amount must be positive", ErrInvalidAmount)
	}
	if err := validateReference(refKind, refID); err != nil {
		return nil, err
	}
	if fromAccountID == "" || toAccountID == "" {
		return nil, newValidationError("accountId", "is required", ErrInvalidOwner)
	}
	if fromAccountID == toAccountID {
		return nil, newValidationError("toAccountId", "must differ from the source account", ErrSameAccount)
	}

	var result *models.TransferResult
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		result, err = s.transferTx(ctx, tx, fromAccountID, toAccountID, amount, refKind, refID)
		return err
	})
	if err != nil {
		if !IsValidation(err) && !IsNotFound(err) && !IsInsufficientBalance(err) {
			logger.ErrorCtx(ctx, err,
				zap.String("refKind", string(refKind)),
				zap.String("refId", refID),
				zap.String("fromAccountId", fromAccountID),
				zap.String("toAccountId", toAccountID))
		}
		s.audit.LogError(refID, fromAccountID, err)
		return nil, err
	}

	s.audit.LogTransfer(string(refKind), refID, fromAccountID, toAccountID, amount, audit.StatusSuccess)
	return result, nil
}

func (s *LedgerService) transferTx(ctx context.Context, tx store.Tx, fromAccountID, toAccountID string, amount int64, refKind models.RefKind, refID string) (*models.TransferResult, error) {
	// Lock accounts in consistent order to prevent deadlocks
	firstLock, secondLock := fromAccountID, toAccountID
	if fromAccountID > toAccountID {
		firstLock, secondLock = toAccountID, fromAccountID
	}

	first, err := s.lockAccount(ctx, tx, firstLock)
	if err != nil {
		return nil, err
	}
	second, err := s.lockAccount(ctx, tx, secondLock)
	if err != nil {
		return nil, err
	}

	fromAccount, toAccount := first, second
	if firstLock != fromAccountID {
		fromAccount, toAccount = second, first
	}

	// The live sum is read under the row lock, so no concurrent transfer
	// can spend the same balance.
	available, err := tx.SumEntries(ctx, fromAccount.ID)
	if err != nil {
		return nil, err
	}
	if available < amount {
		return nil, &InsufficientBalanceError{
			AccountID: fromAccount.ID,
			Available: max(available, 0),
			Requested: amount,
		}
	}

	debit := &models.LedgerEntry{
		AccountID: fromAccount.ID,
		Direction: models.Debit,
		Amount:    amount,
		RefKind:   refKind,
		RefID:     refID,
	}
	if err := tx.CreateEntry(ctx, debit); err != nil {
		return nil, err
	}

	credit := &models.LedgerEntry{
		AccountID: toAccount.ID,
		Direction: models.Credit,
		Amount:    amount,
		RefKind:   refKind,
		RefID:     refID,
	}
	if err := tx.CreateEntry(ctx, credit); err != nil {
		return nil, err
	}

	if err := tx.UpdateAccountBalance(ctx, fromAccount.ID, fromAccount.Balance-amount, fromAccount.Version); err != nil {
		return nil, err
	}
	if err := tx.UpdateAccountBalance(ctx, toAccount.ID, toAccount.Balance+amount, toAccount.Version); err != nil {
		return nil, err
	}

	return &models.TransferResult{DebitEntryID: debit.ID, CreditEntryID: credit.ID}, nil
}

func (s *LedgerService) lockAccount(ctx context.Context, tx store.Tx, accountID string) (*models.Account, error) {
	account, err := tx.LockAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Kind: "account", ID: accountID}
	}
	return account, err
}

// ListEntries returns one newest-first page of an account's entries. A zero
// limit selects the default page size.
func (s *LedgerService) ListEntries(ctx context.Context, accountID string, limit int, cursor string) (*models.EntryPage, error) {
	if limit == 0 {
		limit = s.opts.DefaultPageSize
	}
	if limit < 1 || limit > s.opts.MaxPageSize {
		return nil, newValidationError("limit", fmt.Sprintf("must be between 1 and %d", s.opts.MaxPageSize), nil)
	}
	return s.store.ListEntries(ctx, accountID, limit, cursor)
}

// ListOwnerEntries is ListEntries keyed by owner. An owner without an account
// gets an empty page.
func (s *LedgerService) ListOwnerEntries(ctx context.Context, kind models.OwnerKind, ownerID string, limit int, cursor string) (*models.EntryPage, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return nil, err
	}

	account, err := s.store.FindAccount(ctx, kind, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.EntryPage{Items: []models.LedgerEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.ListEntries(ctx, account.ID, limit, cursor)
}

func (s *LedgerService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Kind: "account", ID: accountID}
	}
	return account, err
}

func (s *LedgerService) FindAccount(ctx context.Context, kind models.OwnerKind, ownerID string) (*models.Account, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return nil, err
	}
	account, err := s.store.FindAccount(ctx, kind, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Kind: "account", ID: string(kind) + ":" + ownerID}
	}
	return account, err
}

func (s *LedgerService) EntriesByReference(ctx context.Context, refKind models.RefKind, refID string) ([]models.LedgerEntry, error) {
	if err := validateReference(refKind, refID); err != nil {
		return nil, err
	}
	return s.store.EntriesByReference(ctx, refKind, refID)
}

// VerifyAccount compares the cached balance with the entry sum.
func (s *LedgerService) VerifyAccount(ctx context.Context, accountID string) (*models.BalanceCheck, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sum, err := s.store.SumEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	check := &models.BalanceCheck{
		AccountID:  accountID,
		Cached:     account.Balance,
		Computed:   sum,
		Consistent: account.Balance == sum,
	}
	if !check.Consistent {
		logger.WarnCtx(ctx, "cached balance drifted from ledger",
			zap.String("accountId", accountID),
			zap.Int64("cached", account.Balance),
			zap.Int64("computed", sum))
	}
	return check, nil
}

// Fund mints amount into the owner's account as a single credit. It is the
// demo top-up path and the only way GLM enters the system after opening.
func (s *LedgerService) Fund(ctx context.Context, kind models.OwnerKind, ownerID string, amount int64, actor, note string) (*models.LedgerEntry, error) {
	if amount < 1 || amount > s.opts.MaxFundAmount {
		return nil, newValidationError("amountGLM", fmt.Sprintf("must be between 1 and %d", s.opts.MaxFundAmount), ErrInvalidAmount)
	}

	accountID, err := s.GetOrCreateAccount(ctx, kind, ownerID, 0)
	if err != nil {
		return nil, err
	}

	refID := s.newRefID()
	var entry *models.LedgerEntry
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		account, err := s.lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			AccountID: accountID,
			Direction: models.Credit,
			Amount:    amount,
			RefKind:   models.RefTransfer,
			RefID:     refID,
		}
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		return tx.UpdateAccountBalance(ctx, accountID, account.Balance+amount, account.Version)
	})
	if err != nil {
		s.audit.LogError(refID, accountID, err)
		return nil, err
	}

	s.audit.LogFund(actor, refID, accountID, amount, note)
	return entry, nil
}
