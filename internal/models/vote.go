package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a single pass-holder's decision on a claim. Exactly one vote per
// (claim, user) pair, enforced by the composite unique index; votes are never
// updated or deleted once cast.
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_claim_user" json:"claim_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_claim_user" json:"user_id"`
	Approve   bool      `gorm:"not null" json:"approve"`
	TxSig     *string   `gorm:"size:128" json:"tx_sig"`
	BlockSlot *int64    `json:"block_slot"`
	CreatedAt time.Time `json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}

// CastVoteRequest represents a vote submission
type CastVoteRequest struct {
	Approve   *bool   `json:"approve" binding:"required"`
	TxSig     *string `json:"tx_sig"`
	BlockSlot *int64  `json:"block_slot"`
}

// UserVote is the caller's own vote, included in tally responses.
type UserVote struct {
	Approve bool `json:"approve"`
}

// Tally is the current vote count for a claim.
type Tally struct {
	YesVotes int64     `json:"yes_votes"`
	NoVotes  int64     `json:"no_votes"`
	UserVote *UserVote `json:"user_vote"`
}
