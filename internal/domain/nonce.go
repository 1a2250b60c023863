package domain

import "time"

// ConsumedNonce marks a (wallet, nonce) pair as used. Key is "wallet:nonce".
type ConsumedNonce struct {
	Key           string    `gorm:"column:nonce_key;type:varchar(320);primaryKey"`
	WalletAddress string    `gorm:"column:wallet_address;type:varchar(128);index;not null"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (ConsumedNonce) TableName() string {
	return "consumed_nonces"
}
