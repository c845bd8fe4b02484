package services

import (
	"context"

	"github.com/goloanme/backend/internal/models"
)

// Donation moves amount from a user's account to a post's account, creating
// either account if needed. refID is normally the pledge id.
func (s *LedgerService) Donation(ctx context.Context, userID, postID string, amount int64, refID string) (*models.TransferResult, error) {
	return s.pledgeTransfer(ctx, userID, postID, amount, refID)
}

// ContractPledge moves money exactly like Donation. Contract terms live on
// the pledge record and are not enforced here.
func (s *LedgerService) ContractPledge(ctx context.Context, userID, postID string, amount int64, refID string) (*models.TransferResult, error) {
	return s.pledgeTransfer(ctx, userID, postID, amount, refID)
}

func (s *LedgerService) pledgeTransfer(ctx context.Context, userID, postID string, amount int64, refID string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, newValidationError("amountGLM", "amount must be positive", ErrInvalidAmount)
	}

	fromAccountID, err := s.GetOrCreateAccount(ctx, models.OwnerUser, userID, 0)
	if err != nil {
		return nil, err
	}
	toAccountID, err := s.GetOrCreateAccount(ctx, models.OwnerPost, postID, 0)
	if err != nil {
		return nil, err
	}

	return s.Transfer(ctx, fromAccountID, toAccountID, amount, models.RefPledge, refID)
}

// Repayment moves amount between two users under a fresh reference id and
// returns that id with the two entries it produced.
func (s *LedgerService) Repayment(ctx context.Context, payerID, payeeID string, amount int64) (string, []models.LedgerEntry, error) {
	if amount <= 0 {
		return "", nil, newValidationError("amountGLM", "amount must be positive", ErrInvalidAmount)
	}
	if payerID == payeeID {
		return "", nil, newValidationError("toUserId", "cannot repay yourself", ErrSameAccount)
	}

	fromAccountID, err := s.GetOrCreateAccount(ctx, models.OwnerUser, payerID, 0)
	if err != nil {
		return "", nil, err
	}
	toAccountID, err := s.GetOrCreateAccount(ctx, models.OwnerUser, payeeID, 0)
	if err != nil {
		return "", nil, err
	}

	refID := s.newRefID()
	if _, err := s.Transfer(ctx, fromAccountID, toAccountID, amount, models.RefRepayment, refID); err != nil {
		return "", nil, err
	}

	entries, err := s.store.EntriesByReference(ctx, models.RefRepayment, refID)
	if err != nil {
		return "", nil, err
	}
	return refID, entries, nil
}

// AdminTransfer moves amount between two existing accounts on behalf of an
// operator. The actor and note go to the audit log only.
func (s *LedgerService) AdminTransfer(ctx context.Context, actor, fromAccountID, toAccountID string, amount int64, note string) (string, []models.LedgerEntry, error) {
	if actor == "" {
		return "", nil, newValidationError("actor", "is required", nil)
	}

	refID := s.newRefID()
	if _, err := s.Transfer(ctx, fromAccountID, toAccountID, amount, models.RefTransfer, refID); err != nil {
		return "", nil, err
	}
	s.audit.LogAdminTransfer(actor, refID, fromAccountID, toAccountID, amount, note)

	entries, err := s.store.EntriesByReference(ctx, models.RefTransfer, refID)
	if err != nil {
		return "", nil, err
	}
	return refID, entries, nil
}
