package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fundPayload struct {
	Amount int64  `validate:"required,gte=1,lte=10000"`
	Note   string `validate:"max=10"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		err := vh.ValidateStruct(&fundPayload{Amount: 100, Note: "top-up"})
		assert.NoError(t, err)
	})

	t.Run("invalid struct", func(t *testing.T) {
		err := vh.ValidateStruct(&fundPayload{Amount: 20000, Note: "far too long a note"})
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2)
	})

	t.Run("missing amount", func(t *testing.T) {
		err := vh.ValidateStruct(&fundPayload{})

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "Amount", validationErrors[0].Field())
		assert.Equal(t, "required", validationErrors[0].Tag())
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		response := decodeError(t, w)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Equal(t, "INTERNAL_ERROR", response.Code)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation errors", func(t *testing.T) {
		validationErr := NewValidationHelper().ValidateStruct(&fundPayload{Amount: 0, Note: "far too long a note"})
		require.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", response.Code)
		assert.Contains(t, response.Details, "Amount")
		assert.Contains(t, response.Details, "Note")
	})

	t.Run("non validator error adds no details", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, errors.New("plain"))

		response := decodeError(t, w)
		assert.Nil(t, response.Details)
	})

	t.Run("unauthorized error", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Unauthorized access", http.StatusUnauthorized, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)
	})
}

func TestSendLedgerError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", newValidationError("amountGLM", "amount must be positive", ErrInvalidAmount), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", &NotFoundError{Kind: "account", ID: "acc-1"}, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped insufficient balance", fmt.Errorf("donate: %w", &InsufficientBalanceError{Available: 700, Requested: 5000}), http.StatusConflict, "INSUFFICIENT_BALANCE"},
		{"idempotency conflict", ErrIdempotencyConflict, http.StatusConflict, "IDEMPOTENCY_CONFLICT"},
		{"qr code", ErrQRCodeInvalid, http.StatusBadRequest, "QR_CODE_INVALID"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SendLedgerError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}

	t.Run("insufficient balance reports available", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendLedgerError(w, &InsufficientBalanceError{Available: 700, Requested: 5000})

		response := decodeError(t, w)
		assert.Equal(t, "Insufficient balance. Available: 700", response.Error)
		assert.Equal(t, float64(700), response.Details["available"])
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendLedgerError(w, errors.New("pq: password authentication failed"))

		assert.Equal(t, "Internal server error", decodeError(t, w).Error)
	})
}

func TestNewValidationHelper(t *testing.T) {
	vh := NewValidationHelper()
	assert.NotNil(t, vh)
	assert.NotNil(t, vh.validator)
}
