package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
	ClaimStatusPaid     ClaimStatus = "PAID"
)

// Claim is a creator's request to withdraw funds from their protection vault.
// Status transitions are one-directional: PENDING -> {APPROVED, REJECTED},
// APPROVED -> PAID. The on-chain references are typed columns rather than
// JSON smuggled through the reason text.
type Claim struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID            uint             `gorm:"not null;index" json:"creator_id"`
	Reason               string           `gorm:"size:2000;not null" json:"reason"`
	Amount               decimal.Decimal  `gorm:"type:decimal(20,9);not null" json:"amount"`
	Status               ClaimStatus      `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	ValidTill            time.Time        `gorm:"not null;index" json:"valid_till"`
	OnchainClaimAddress  *string          `gorm:"size:64" json:"onchain_claim_address"`
	CreatorPoolAddress   *string          `gorm:"size:64" json:"creator_pool_address"`
	EvidenceHash         *string          `gorm:"size:128" json:"evidence_hash"`
	TransactionSignature *string          `gorm:"size:128" json:"transaction_signature"`
	DistributedAmount    *decimal.Decimal `gorm:"type:decimal(20,9)" json:"distributed_amount"`
	FinalizedAt          *time.Time       `json:"finalized_at"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	Media                []ClaimMedia     `gorm:"foreignKey:ClaimID" json:"media"`
}

func (Claim) TableName() string {
	return "claims"
}

// ClaimMedia is an evidence attachment on a claim.
type ClaimMedia struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID   uuid.UUID `gorm:"type:uuid;not null;index" json:"claim_id"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	Thumbnail *string   `gorm:"size:500" json:"thumbnail"`
	CreatedAt time.Time `json:"created_at"`
}

func (ClaimMedia) TableName() string {
	return "claim_media"
}

// MediaInput is an attachment reference in a create/update request.
type MediaInput struct {
	Type      string  `json:"type" binding:"required"`
	URL       string  `json:"url" binding:"required"`
	Thumbnail *string `json:"thumbnail"`
}

// CreateClaimRequest represents a request to file a new claim
type CreateClaimRequest struct {
	Reason              string          `json:"reason" binding:"required,min=3"`
	Amount              decimal.Decimal `json:"amount" binding:"required"`
	ValidTill           *time.Time      `json:"valid_till"`
	Media               []MediaInput    `json:"media"`
	OnchainClaimAddress *string         `json:"onchain_claim_address"`
	CreatorPoolAddress  *string         `json:"creator_pool_address"`
	EvidenceHash        *string         `json:"evidence_hash"`
}

// UpdateClaimRequest represents an edit to an unresolved claim
type UpdateClaimRequest struct {
	Reason *string          `json:"reason" binding:"omitempty,min=3"`
	Amount *decimal.Decimal `json:"amount"`
	Media  []MediaInput     `json:"media"`
}

// FinalizeResult is returned when voting on a claim is closed.
type FinalizeResult struct {
	Status   ClaimStatus `json:"status"`
	YesVotes int64       `json:"yes_votes"`
	NoVotes  int64       `json:"no_votes"`
}
