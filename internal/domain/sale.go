package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SaleUpcoming  = "upcoming"
	SaleActive    = "active"
	SalePaused    = "paused"
	SaleFinalized = "finalized"
	SaleRefunded  = "refunded"
)

// TeamVesting controls how purchased tokens unlock after finalization.
type TeamVesting struct {
	Enabled         bool       `gorm:"column:enabled" json:"enabled"`
	CliffSeconds    int64      `gorm:"column:cliff_seconds" json:"cliffSeconds"`
	DurationSeconds int64      `gorm:"column:duration_seconds" json:"durationSeconds"`
	UnlockStartAt   *time.Time `gorm:"column:unlock_start_at" json:"unlockStartAt,omitempty"`
}

type LiquidityLock struct {
	Enabled   bool       `gorm:"column:enabled" json:"enabled"`
	LockUntil *time.Time `gorm:"column:lock_until" json:"lockUntil,omitempty"`
}

// Sale holds the funding mechanics of a launch. Exactly one Sale exists per Project.
type Sale struct {
	ID                 string                      `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ProjectID          string                      `gorm:"column:project_id;type:varchar(64);uniqueIndex;not null" json:"projectId"`
	TokenSymbol        string                      `gorm:"column:token_symbol;type:varchar(16);not null" json:"tokenSymbol"`
	TokenPrice         decimal.Decimal             `gorm:"column:token_price;type:numeric;not null" json:"tokenPrice"`
	TotalSupply        decimal.Decimal             `gorm:"column:total_supply;type:numeric;not null" json:"totalSupply"`
	RaisedAmount       decimal.Decimal             `gorm:"column:raised_amount;type:numeric;not null" json:"raisedAmount"`
	State              string                      `gorm:"column:state;type:varchar(16);not null" json:"state"`
	StartsAt           time.Time                   `gorm:"column:starts_at;not null" json:"startsAt"`
	EndsAt             time.Time                   `gorm:"column:ends_at;not null" json:"endsAt"`
	FinalizedAt        *time.Time                  `gorm:"column:finalized_at" json:"finalizedAt,omitempty"`
	TeamVesting        TeamVesting                 `gorm:"embedded;embeddedPrefix:vesting_" json:"teamVesting"`
	LiquidityLock      LiquidityLock               `gorm:"embedded;embeddedPrefix:liquidity_" json:"liquidityLock"`
	MinBuyAmount       decimal.Decimal             `gorm:"column:min_buy_amount;type:numeric;not null" json:"minBuyAmount"`
	MaxBuyAmount       decimal.Decimal             `gorm:"column:max_buy_amount;type:numeric;not null" json:"maxBuyAmount"`
	WhitelistAddresses datatypes.JSONSlice[string] `gorm:"column:whitelist_addresses" json:"whitelistAddresses"`
	CreatedAt          time.Time                   `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt          time.Time                   `gorm:"column:updated_at" json:"updatedAt"`
}

func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = "s_" + uuid.New().String()
	}
	if s.WhitelistAddresses == nil {
		s.WhitelistAddresses = datatypes.JSONSlice[string]{}
	}
	return nil
}

// Whitelisted reports whether wallet may buy. An empty whitelist admits everyone.
func (s *Sale) Whitelisted(wallet string) bool {
	if len(s.WhitelistAddresses) == 0 {
		return true
	}
	for _, a := range s.WhitelistAddresses {
		if a == wallet {
			return true
		}
	}
	return false
}

// Terminal reports whether the sale can no longer change state.
func (s *Sale) Terminal() bool {
	return s.State == SaleFinalized || s.State == SaleRefunded
}
