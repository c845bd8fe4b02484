package models

import "time"

type PledgeType string

const (
	PledgeDonation PledgeType = "donation"
	PledgeContract PledgeType = "contract"
)

func (t PledgeType) Valid() bool {
	return t == PledgeDonation || t == PledgeContract
}

// Pledge is the business record a pledge transfer is tagged with. Contract
// terms are descriptive only; nothing schedules repayments from them.
type Pledge struct {
	ID        string     `json:"id" db:"id"`
	PostID    string     `json:"postId" db:"post_id"`
	PledgerID string     `json:"pledgerId" db:"pledger_id"`
	Type      PledgeType `json:"type" db:"type"`
	Amount    int64      `json:"amountGLM" db:"amount"`
	TermsID   *string    `json:"termsId,omitempty" db:"terms_id"`
	Note      *string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// PostStats is derived from a post's pledges on every read.
type PostStats struct {
	FundedGLM int64 `json:"fundedGLM"`
	Donors    int   `json:"donors"`
	Sponsors  int   `json:"sponsors"`
}
