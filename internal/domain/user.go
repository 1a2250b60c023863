package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a wallet identity. WalletAddress is unique across the ledger.
type User struct {
	ID            string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	WalletAddress string    `gorm:"column:wallet_address;type:varchar(128);uniqueIndex;not null" json:"walletAddress"`
	Role          string    `gorm:"column:role;type:varchar(16);not null" json:"role"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = "u_" + uuid.New().String()
	}
	return nil
}
