package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string         `json:"error"`             // Error message
	Code    string         `json:"code"`              // Machine readable error code
	Details map[string]any `json:"details,omitempty"` // Validation details or error context
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

var statusCodes = map[int]string{
	http.StatusBadRequest:          "VALIDATION_ERROR",
	http.StatusUnauthorized:        "UNAUTHORIZED",
	http.StatusForbidden:           "FORBIDDEN",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusConflict:            "CONFLICT",
	http.StatusInternalServerError: "INTERNAL_ERROR",
}

// SendErrorResponse sends a JSON error response. Field failures from the
// validator are listed under details.
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	code, ok := statusCodes[statusCode]
	if !ok {
		code = http.StatusText(statusCode)
	}

	var details map[string]any
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		details = make(map[string]any, len(fieldErrs))
		for _, err := range fieldErrs {
			details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	sendError(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// SendLedgerError maps a ledger error onto its HTTP status and body.
func SendLedgerError(w http.ResponseWriter, err error) {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		balanceErr    *InsufficientBalanceError
	)

	switch {
	case errors.As(err, &balanceErr):
		sendError(w, http.StatusConflict, ErrorResponse{
			Error: balanceErr.Error(),
			Code:  "INSUFFICIENT_BALANCE",
			Details: map[string]any{
				"available": balanceErr.Available,
				"requested": balanceErr.Requested,
			},
		})
	case errors.As(err, &validationErr):
		resp := ErrorResponse{Error: validationErr.Error(), Code: "VALIDATION_ERROR"}
		if validationErr.Field != "" {
			resp.Details = map[string]any{validationErr.Field: validationErr.Message}
		}
		sendError(w, http.StatusBadRequest, resp)
	case errors.As(err, &notFoundErr):
		sendError(w, http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, ErrIdempotencyConflict):
		sendError(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "IDEMPOTENCY_CONFLICT"})
	case errors.Is(err, ErrQRCodeInvalid):
		sendError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "QR_CODE_INVALID"})
	default:
		sendError(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"})
	}
}

func sendError(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
