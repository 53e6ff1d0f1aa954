package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DistributionKind string

const (
	DistributionKindPayout DistributionKind = "PAYOUT" // full balance to the creator
	DistributionKindRefund DistributionKind = "REFUND" // equal split across holders
)

// Distribution records the executed payout plan for a finalized claim.
// At most one distribution per claim; its presence (and the transaction
// signature mirrored onto the claim) is what makes payout/refund idempotent.
type Distribution struct {
	ID             uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID        uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex" json:"claim_id"`
	Kind           DistributionKind        `gorm:"size:20;not null" json:"kind"`
	TotalAmount    decimal.Decimal         `gorm:"type:decimal(20,9);not null" json:"total_amount"`
	RecipientCount int                     `gorm:"not null" json:"recipient_count"`
	TxSignature    string                  `gorm:"size:128;not null" json:"tx_signature"`
	CreatedAt      time.Time               `json:"created_at"`
	Recipients     []DistributionRecipient `gorm:"foreignKey:DistributionID" json:"recipients"`
}

func (Distribution) TableName() string {
	return "distributions"
}

// DistributionRecipient is one leg of a distribution.
type DistributionRecipient struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DistributionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"distribution_id"`
	UserID         *uint           `json:"user_id"`
	WalletAddress  string          `gorm:"size:64;not null" json:"wallet_address"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,9);not null" json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (DistributionRecipient) TableName() string {
	return "distribution_recipients"
}

// Transfer is one leg of a vault distribution handed to the on-chain gateway.
type Transfer struct {
	WalletAddress string
	Amount        decimal.Decimal
}

// RecipientShare is one computed leg of a distribution plan in API responses.
type RecipientShare struct {
	UserID        *uint           `json:"user_id"`
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
}

// DistributionResult reports what a payout or refund actually moved.
// A zero DistributedAmount with Success=true means the vault was empty (or
// there were no holders to refund) and no transfer was attempted.
type DistributionResult struct {
	Success           bool             `json:"success"`
	Kind              DistributionKind `json:"kind"`
	DistributedAmount decimal.Decimal  `json:"distributed_amount"`
	RecipientCount    int              `json:"recipient_count"`
	TxSignature       string           `json:"tx_signature"`
	Recipients        []RecipientShare `json:"recipients"`
}
