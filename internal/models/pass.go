package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pass is a creator's fundraising instrument. Exactly one pass per creator;
// the vault address points at the on-chain account that accumulates the
// creator's protection-pool funds.
type Pass struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatorID    uint            `gorm:"uniqueIndex;not null" json:"creator_id"`
	TokenMint    string          `gorm:"size:64;not null" json:"token_mint"`
	VaultAddress string          `gorm:"size:64;not null" json:"vault_address"`
	Price        decimal.Decimal `gorm:"type:decimal(20,9);not null" json:"price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Pass) TableName() string {
	return "passes"
}

// Ownership records that a user holds a creator's pass. It is the off-chain
// proxy for NFT-holder status: it gates voting eligibility and forms the
// distribution roster for rejected claims.
type Ownership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ownerships_user_pass" json:"user_id"`
	PassID    uint      `gorm:"not null;uniqueIndex:idx_ownerships_user_pass" json:"pass_id"`
	CreatorID uint      `gorm:"not null;index" json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Ownership) TableName() string {
	return "ownerships"
}

// Holder is an entry in a creator's distribution roster.
type Holder struct {
	UserID        uint   `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	Nickname      string `json:"nickname"`
}

// CreatePassRequest represents a request to create a pass
type CreatePassRequest struct {
	TokenMint    string          `json:"token_mint" binding:"required"`
	VaultAddress string          `json:"vault_address" binding:"required"`
	Price        decimal.Decimal `json:"price" binding:"required"`
}

// UpdatePassRequest represents a price change request
type UpdatePassRequest struct {
	Price decimal.Decimal `json:"price" binding:"required"`
}

// BuyPassRequest represents a pass purchase; the signature is the on-chain
// purchase transaction to verify before recording ownership.
type BuyPassRequest struct {
	PassID    uint   `json:"pass_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}
