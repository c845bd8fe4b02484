package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInvalidOwner        = errors.New("ledger: invalid owner")
	ErrInvalidReference    = errors.New("ledger: invalid reference")
	ErrAccountNotFound     = errors.New("ledger: account not found")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrSameAccount         = errors.New("ledger: source and destination are the same account")
	ErrPledgeNotFound      = errors.New("ledger: pledge not found")
	ErrIdempotencyConflict = errors.New("ledger: request with this idempotency key is in progress")
	ErrQRCodeInvalid       = errors.New("ledger: qr code invalid or expired")
)

// ValidationError reports a rejected input field. It unwraps to the
// matching sentinel when one exists.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(field, message string, sentinel error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: sentinel}
}

// NotFoundError reports a missing account or pledge.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrAccountNotFound:
		return e.Kind == "account"
	case ErrPledgeNotFound:
		return e.Kind == "pledge"
	}
	return false
}

// InsufficientBalanceError carries the live balance so callers can show it.
type InsufficientBalanceError struct {
	AccountID string
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. Available: %d", e.Available)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// AvailableBalance extracts the reported balance from an insufficient
// balance error.
func AvailableBalance(err error) (int64, bool) {
	var ib *InsufficientBalanceError
	if errors.As(err, &ib) {
		return ib.Available, true
	}
	return 0, false
}
