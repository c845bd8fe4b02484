// Package audit writes structured audit records for every money movement.
package audit

import (
	"time"

	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/logger"
)

type EventType string

const (
	EventTransfer      EventType = "TRANSFER"
	EventAdminTransfer EventType = "ADMIN_TRANSFER"
	EventFund          EventType = "FUND"
	EventAccountOpened EventType = "ACCOUNT_OPENED"
	EventError         EventType = "ERROR"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	RefKind   string            `json:"ref_kind,omitempty"`
	RefID     string            `json:"ref_id,omitempty"`
	AccountID string            `json:"account_id,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	Amount    int64             `json:"amount,omitempty"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details,omitempty"`
}

// Logger emits audit events on the global zap logger under the "audit" name.
type Logger struct {
	now func() time.Time
}

func NewLogger() *Logger {
	return &Logger{now: time.Now}
}

func (a *Logger) LogTransfer(refKind, refID, fromAccount, toAccount string, amount int64, status string) {
	a.log(Event{
		EventType: EventTransfer,
		RefKind:   refKind,
		RefID:     refID,
		AccountID: fromAccount,
		Amount:    amount,
		Status:    status,
		Details: map[string]string{
			"from_account": fromAccount,
			"to_account":   toAccount,
		},
	})
}

// LogAdminTransfer records who moved credit by hand. The actor is not part
// of the ledger entries themselves.
func (a *Logger) LogAdminTransfer(actor, refID, fromAccount, toAccount string, amount int64, note string) {
	details := map[string]string{
		"from_account": fromAccount,
		"to_account":   toAccount,
	}
	if note != "" {
		details["note"] = note
	}
	a.log(Event{
		EventType: EventAdminTransfer,
		RefKind:   "transfer",
		RefID:     refID,
		AccountID: fromAccount,
		Actor:     actor,
		Amount:    amount,
		Status:    StatusSuccess,
		Details:   details,
	})
}

func (a *Logger) LogFund(actor, refID, accountID string, amount int64, note string) {
	event := Event{
		EventType: EventFund,
		RefKind:   "transfer",
		RefID:     refID,
		AccountID: accountID,
		Actor:     actor,
		Amount:    amount,
		Status:    StatusSuccess,
	}
	if note != "" {
		event.Details = map[string]string{"note": note}
	}
	a.log(event)
}

func (a *Logger) LogAccountOpened(accountID, ownerKind, ownerID string, initialBalance int64) {
	a.log(Event{
		EventType: EventAccountOpened,
		AccountID: accountID,
		Amount:    initialBalance,
		Status:    StatusSuccess,
		Details: map[string]string{
			"owner_kind": ownerKind,
			"owner_id":   ownerID,
		},
	})
}

func (a *Logger) LogError(refID, accountID string, err error) {
	a.log(Event{
		EventType: EventError,
		RefID:     refID,
		AccountID: accountID,
		Status:    StatusFailed,
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now().UTC()
	logger.Default().Named("audit").Info("AUDIT",
		zap.String("event_type", string(event.EventType)),
		zap.String("status", event.Status),
		zap.Any("event", event),
	)
}
