package models

import (
	"time"
)

// User represents a user in the system. Creators and fans share the same
// table; a user becomes a creator by minting a pass.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	Nickname      string    `gorm:"size:255" json:"nickname"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
