package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// newEntryID returns a ULID and the millisecond timestamp encoded in it, so
// ordering by id matches ordering by created_at.
func newEntryID() (string, time.Time) {
	id := ulid.Make()
	return id.String(), ulid.Time(id.Time()).UTC()
}

func newAccountID() string {
	return uuid.NewString()
}

func newPledgeID() string {
	return uuid.NewString()
}
