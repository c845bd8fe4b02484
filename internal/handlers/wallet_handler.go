package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/models"
	"github.com/goloanme/backend/internal/services"
)

type WalletHandler struct {
	ledger          *services.LedgerService
	validator       *services.ValidationHelper
	startingBalance int64
}

func NewWalletHandler(ledger *services.LedgerService, startingBalance int64) *WalletHandler {
	return &WalletHandler{
		ledger:          ledger,
		validator:       services.NewValidationHelper(),
		startingBalance: startingBalance,
	}
}

// WalletAccount is the caller's account as shown in the wallet view.
type WalletAccount struct {
	ID         string `json:"id"`
	OwnerType  string `json:"ownerType"`
	OwnerID    string `json:"ownerId"`
	BalanceGLM int64  `json:"balanceGLM"`
}

// GetWallet returns the caller's GLM account
// @Summary Get wallet
// @Description Get the caller's account and balance. The account is opened with the starting balance on first use.
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{account=handlers.WalletAccount}
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /wallet [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accountID, err := h.ledger.GetOrCreateAccount(r.Context(), models.OwnerUser, userID, h.startingBalance)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), models.OwnerUser, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": WalletAccount{
			ID:         accountID,
			OwnerType:  string(models.OwnerUser),
			OwnerID:    userID,
			BalanceGLM: balance,
		},
	})
}

// ListTransactions returns the caller's ledger entries newest first
// @Summary List wallet transactions
// @Description Cursor-paginated ledger entries of the caller's account
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (1-100, default 20)"
// @Param cursor query string false "nextCursor from the previous page"
// @Success 200 {object} models.EntryPage
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/transactions [get]
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			services.SendErrorResponse(w, "limit must be a positive integer", http.StatusBadRequest, nil)
			return
		}
		limit = n
	}

	page, err := h.ledger.ListOwnerEntries(r.Context(), models.OwnerUser, userID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// FundRequest represents a demo top-up
type FundRequest struct {
	AmountGLM int64  `json:"amountGLM" validate:"required,gte=1"`
	Note      string `json:"note,omitempty" validate:"max=500"`
}

// Fund credits the caller's account
// @Summary Fund wallet
// @Description Demo tool that mints GLM into the caller's account
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Deduplication key"
// @Param request body handlers.FundRequest true "Funding request"
// @Success 201 {object} object{success=bool,amountGLM=int64,newBalance=int64,ledgerEntry=models.LedgerEntry}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/fund [post]
func (h *WalletHandler) Fund(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req FundRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	if req.Note == "" {
		req.Note = "Demo funding"
	}

	entry, err := h.ledger.Fund(r.Context(), models.OwnerUser, userID, req.AmountGLM, userID, req.Note)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), models.OwnerUser, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"amountGLM":   req.AmountGLM,
		"newBalance":  balance,
		"ledgerEntry": entry,
	})
}

// EntriesResponse is the entry pair written under one reference id
type EntriesResponse struct {
	RefID   string               `json:"refId"`
	Entries []models.LedgerEntry `json:"entries"`
}

// RepaymentRequest represents a repayment to another user
type RepaymentRequest struct {
	ToUserID  string `json:"toUserId" validate:"required"`
	AmountGLM int64  `json:"amountGLM" validate:"required,gte=1"`
	Note      string `json:"note" validate:"required,max=500"`
}

// CreateRepayment moves GLM from the caller to another user
// @Summary Create repayment
// @Description Repay a sponsor. Both entries share one repayment reference id.
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Deduplication key"
// @Param request body handlers.RepaymentRequest true "Repayment request"
// @Success 201 {object} handlers.EntriesResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /wallet/repayments [post]
func (h *WalletHandler) CreateRepayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req RepaymentRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	refID, entries, err := h.ledger.Repayment(r.Context(), userID, req.ToUserID, req.AmountGLM)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	logger.InfoCtx(r.Context(), "repayment created",
		zap.String("refId", refID),
		zap.String("from", userID),
		zap.String("to", req.ToUserID),
		zap.String("note", req.Note))

	writeJSON(w, http.StatusCreated, EntriesResponse{RefID: refID, Entries: entries})
}

// TransferRequest represents an admin transfer between accounts
type TransferRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
	ToAccountID   string `json:"toAccountId" validate:"required"`
	AmountGLM     int64  `json:"amountGLM" validate:"required,gte=1"`
	Note          string `json:"note" validate:"required,max=500"`
}

// Transfer moves GLM between two accounts
// @Summary Admin transfer
// @Description Move GLM between any two accounts. Requires the admin role.
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Deduplication key"
// @Param request body handlers.TransferRequest true "Transfer request"
// @Success 201 {object} handlers.EntriesResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /wallet/transfer [post]
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	refID, entries, err := h.ledger.AdminTransfer(r.Context(), userID, req.FromAccountID, req.ToAccountID, req.AmountGLM, req.Note)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, EntriesResponse{RefID: refID, Entries: entries})
}

// VerifyAccount compares an account's cached balance with its entries
// @Summary Verify account balance
// @Description Recompute an account balance from its ledger entries. Requires the admin role.
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} models.BalanceCheck
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{accountId}/verify [get]
func (h *WalletHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	check, err := h.ledger.VerifyAccount(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}
