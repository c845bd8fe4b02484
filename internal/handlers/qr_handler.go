package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goloanme/backend/internal/services"
)

type QRHandler struct {
	service   *services.DonationQRService
	validator *services.ValidationHelper
}

func NewQRHandler(service *services.DonationQRService) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateQRRequest represents a donation QR request
type GenerateQRRequest struct {
	AmountGLM int64 `json:"amountGLM" validate:"required,gte=1"`
}

// GenerateQR generates a donation QR code for a post
// @Summary Generate donation QR code
// @Description Generate a one-time QR code that donates a fixed amount to the post when redeemed
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post ID"
// @Param request body handlers.GenerateQRRequest true "QR generation request"
// @Success 201 {object} object{token=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /posts/{postId}/qr [post]
func (h *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req GenerateQRRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	token, qrImage, err := h.service.GenerateDonationQR(r.Context(), userID, chi.URLParam(r, "postId"), req.AmountGLM)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"token":   token,
		"qrImage": qrImage,
	})
}

// RedeemQRRequest carries a scanned QR token
type RedeemQRRequest struct {
	Token string `json:"token" validate:"required"`
}

// RedeemQR redeems a scanned donation QR code
// @Summary Redeem donation QR code
// @Description Consume a donation QR token and pledge its amount from the caller
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Deduplication key"
// @Param request body handlers.RedeemQRRequest true "QR redemption request"
// @Success 201 {object} object{pledge=models.Pledge,transfer=models.TransferResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /qr/redeem [post]
func (h *QRHandler) RedeemQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req RedeemQRRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	pledge, result, err := h.service.RedeemDonationQR(r.Context(), userID, req.Token)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"pledge": pledge, "transfer": result})
}
