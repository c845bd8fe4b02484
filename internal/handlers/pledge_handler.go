package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/models"
	"github.com/goloanme/backend/internal/services"
)

type PledgeHandler struct {
	pledges   *services.PledgeService
	validator *services.ValidationHelper
}

func NewPledgeHandler(pledges *services.PledgeService) *PledgeHandler {
	return &PledgeHandler{
		pledges:   pledges,
		validator: services.NewValidationHelper(),
	}
}

// CreatePledgeRequest represents a donation or contract pledge
type CreatePledgeRequest struct {
	Type      string  `json:"type" validate:"required,oneof=donation contract"`
	AmountGLM int64   `json:"amountGLM" validate:"required,gte=1"`
	TermsID   *string `json:"termsId,omitempty"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// CreatePledge pledges GLM from the caller to a post
// @Summary Create pledge
// @Description Record a donation or contract pledge and move its amount to the post
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post ID"
// @Param Idempotency-Key header string false "Deduplication key"
// @Param request body handlers.CreatePledgeRequest true "Pledge request"
// @Success 201 {object} object{pledge=models.Pledge,transfer=models.TransferResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /posts/{postId}/pledges [post]
func (h *PledgeHandler) CreatePledge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreatePledgeRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	pledge, result, err := h.pledges.CreatePledge(r.Context(), services.CreatePledgeRequest{
		UserID:  userID,
		PostID:  chi.URLParam(r, "postId"),
		Type:    models.PledgeType(req.Type),
		Amount:  req.AmountGLM,
		TermsID: req.TermsID,
		Note:    req.Note,
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"pledge": pledge, "transfer": result})
}

// ListPledges lists a post's pledges
// @Summary List pledges
// @Description Pledges of a post, newest first
// @Tags Pledges
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post ID"
// @Success 200 {object} object{items=[]models.Pledge,nextCursor=string}
// @Router /posts/{postId}/pledges [get]
func (h *PledgeHandler) ListPledges(w http.ResponseWriter, r *http.Request) {
	pledges, err := h.pledges.ListPledges(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if pledges == nil {
		pledges = []models.Pledge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": pledges, "nextCursor": nil})
}

// GetStats returns a post's funding figures
// @Summary Post funding stats
// @Tags Pledges
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post ID"
// @Success 200 {object} models.PostStats
// @Router /posts/{postId}/stats [get]
func (h *PledgeHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pledges.PostStats(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if !services.IsValidation(err) && !services.IsNotFound(err) && !services.IsInsufficientBalance(err) {
		logger.ErrorCtx(r.Context(), err, zap.String("path", r.URL.Path))
	}
	services.SendLedgerError(w, err)
}
