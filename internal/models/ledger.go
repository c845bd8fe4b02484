package models

import (
	"time"
)

// OwnerKind identifies what an account belongs to.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerPost OwnerKind = "post"
)

func (k OwnerKind) Valid() bool {
	return k == OwnerUser || k == OwnerPost
}

// Direction is the sign of a ledger entry.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// RefKind tags the business event a pair of entries belongs to.
type RefKind string

const (
	RefPledge    RefKind = "pledge"
	RefTransfer  RefKind = "transfer"
	RefRepayment RefKind = "repayment"
)

func (k RefKind) Valid() bool {
	return k == RefPledge || k == RefTransfer || k == RefRepayment
}

type Account struct {
	ID        string    `json:"id" db:"id"`
	OwnerKind OwnerKind `json:"ownerType" db:"owner_kind"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Balance   int64     `json:"balanceGLM" db:"balance"` // cached, see LedgerEntry
	Version   int       `json:"-" db:"version"`          // for optimistic locking
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// LedgerEntry is immutable once written. Entry IDs are ULIDs so they sort
// in creation order.
type LedgerEntry struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"accountId" db:"account_id"`
	Direction Direction `json:"direction" db:"direction"`
	Amount    int64     `json:"amountGLM" db:"amount"`
	RefKind   RefKind   `json:"refType" db:"ref_kind"`
	RefID     string    `json:"refId" db:"ref_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Signed returns the entry's contribution to its account balance.
func (e LedgerEntry) Signed() int64 {
	if e.Direction == Debit {
		return -e.Amount
	}
	return e.Amount
}

// EntryPage is one newest-first page of an account's entries.
type EntryPage struct {
	Items      []LedgerEntry `json:"items"`
	NextCursor *string       `json:"nextCursor"`
}

// TransferResult holds the ids of the two entries written by a transfer.
type TransferResult struct {
	DebitEntryID  string `json:"debitEntryId"`
	CreditEntryID string `json:"creditEntryId"`
}

// BalanceCheck compares the cached balance with the entry sum.
type BalanceCheck struct {
	AccountID  string `json:"accountId"`
	Cached     int64  `json:"cachedBalance"`
	Computed   int64  `json:"computedBalance"`
	Consistent bool   `json:"consistent"`
}
