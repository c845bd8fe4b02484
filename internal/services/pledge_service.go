package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/models"
	"github.com/goloanme/backend/internal/store"
)

type PledgeService struct {
	store     store.Store
	ledger    *LedgerService
	maxAmount int64
}

func NewPledgeService(st store.Store, ledger *LedgerService, maxAmount int64) *PledgeService {
	return &PledgeService{
		store:     st,
		ledger:    ledger,
		maxAmount: maxAmount,
	}
}

type CreatePledgeRequest struct {
	UserID  string
	PostID  string
	Type    models.PledgeType
	Amount  int64
	TermsID *string
	Note    *string
}

func (s *PledgeService) validate(req CreatePledgeRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return newValidationError("userId", "is required", ErrInvalidOwner)
	}
	if strings.TrimSpace(req.PostID) == "" {
		return newValidationError("postId", "is required", ErrInvalidOwner)
	}
	if !req.Type.Valid() {
		return newValidationError("type", "must be donation or contract", nil)
	}
	if req.Amount < 1 || req.Amount > s.maxAmount {
		return newValidationError("amountGLM", fmt.Sprintf("must be between 1 and %d", s.maxAmount), ErrInvalidAmount)
	}
	if req.Type == models.PledgeContract && (req.TermsID == nil || strings.TrimSpace(*req.TermsID) == "") {
		return newValidationError("termsId", "is required for contract pledges", nil)
	}
	return nil
}

// CreatePledge records a pledge and moves its amount to the post. If the
// transfer fails the pledge record is removed again and the transfer error
// is returned unchanged.
func (s *PledgeService) CreatePledge(ctx context.Context, req CreatePledgeRequest) (*models.Pledge, *models.TransferResult, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	pledge := &models.Pledge{
		PostID:    req.PostID,
		PledgerID: req.UserID,
		Type:      req.Type,
		Amount:    req.Amount,
		TermsID:   req.TermsID,
		Note:      req.Note,
	}
	if req.Type == models.PledgeDonation {
		pledge.TermsID = nil
	}
	if err := s.store.CreatePledge(ctx, pledge); err != nil {
		return nil, nil, err
	}

	var (
		result *models.TransferResult
		err    error
	)
	if pledge.Type == models.PledgeContract {
		result, err = s.ledger.ContractPledge(ctx, req.UserID, req.PostID, req.Amount, pledge.ID)
	} else {
		result, err = s.ledger.Donation(ctx, req.UserID, req.PostID, req.Amount, pledge.ID)
	}
	if err != nil {
		// Use a fresh context so cleanup still runs when ctx was cancelled.
		if delErr := s.store.DeletePledge(context.WithoutCancel(ctx), pledge.ID); delErr != nil {
			logger.ErrorCtx(ctx, delErr,
				zap.String("pledgeId", pledge.ID),
				zap.String("postId", pledge.PostID))
		}
		return nil, nil, err
	}

	return pledge, result, nil
}

func (s *PledgeService) GetPledge(ctx context.Context, pledgeID string) (*models.Pledge, error) {
	pledge, err := s.store.GetPledge(ctx, pledgeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Kind: "pledge", ID: pledgeID}
	}
	return pledge, err
}

// ListPledges returns a post's pledges newest first.
func (s *PledgeService) ListPledges(ctx context.Context, postID string) ([]models.Pledge, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, newValidationError("postId", "is required", ErrInvalidOwner)
	}
	return s.store.ListPledges(ctx, postID)
}

// PostStats recomputes a post's funding figures from its pledges.
func (s *PledgeService) PostStats(ctx context.Context, postID string) (*models.PostStats, error) {
	pledges, err := s.ListPledges(ctx, postID)
	if err != nil {
		return nil, err
	}
	stats := FundingStats(pledges)
	return &stats, nil
}
