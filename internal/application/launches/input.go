package launches

import (
	"strings"
	"time"

	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

type VestingInput struct {
	Enabled         bool       `json:"enabled"`
	CliffSeconds    int64      `json:"cliffSeconds"`
	DurationSeconds int64      `json:"durationSeconds"`
	UnlockStartAt   *time.Time `json:"unlockStartAt"`
}

type LiquidityLockInput struct {
	Enabled   bool       `json:"enabled"`
	LockUntil *time.Time `json:"lockUntil"`
}

type BuyLimitsInput struct {
	MinBuyAmount *decimal.Decimal `json:"minBuyAmount"`
	MaxBuyAmount *decimal.Decimal `json:"maxBuyAmount"`
}

type WhitelistInput struct {
	Enabled   bool     `json:"enabled"`
	Addresses []string `json:"addresses"`
}

// CreateLaunchInput is the create-project payload.
type CreateLaunchInput struct {
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	HardCap       decimal.Decimal    `json:"hardCap"`
	SoftCap       decimal.Decimal    `json:"softCap"`
	TokenSymbol   string             `json:"tokenSymbol"`
	TokenPrice    decimal.Decimal    `json:"tokenPrice"`
	TotalSupply   decimal.Decimal    `json:"totalSupply"`
	StartsAt      time.Time          `json:"startsAt"`
	EndsAt        time.Time          `json:"endsAt"`
	TeamVesting   VestingInput       `json:"teamVesting"`
	LiquidityLock LiquidityLockInput `json:"liquidityLock"`
	BuyLimits     *BuyLimitsInput    `json:"buyLimits"`
	Whitelist     *WhitelistInput    `json:"whitelist"`
}

// Validate returns the first invalid field as a validation error.
func (in *CreateLaunchInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.TokenSymbol = strings.ToUpper(strings.TrimSpace(in.TokenSymbol))

	switch {
	case in.Name == "" || len(in.Name) > 120:
		return domain.Invalid("name must be between 1 and 120 characters")
	case len(in.Description) > 5000:
		return domain.Invalid("description is too long")
	case !in.HardCap.IsPositive():
		return domain.Invalid("hardCap must be positive")
	case in.SoftCap.IsNegative():
		return domain.Invalid("softCap must not be negative")
	case in.SoftCap.GreaterThan(in.HardCap):
		return domain.Invalid("softCap must not exceed hardCap")
	case !validation.IsValidTokenSymbol(in.TokenSymbol):
		return domain.Invalid("tokenSymbol must be 2-12 alphanumeric characters")
	case !in.TokenPrice.IsPositive():
		return domain.Invalid("tokenPrice must be positive")
	case !in.TotalSupply.IsPositive():
		return domain.Invalid("totalSupply must be positive")
	case in.StartsAt.IsZero() || in.EndsAt.IsZero():
		return domain.Invalid("startsAt and endsAt are required")
	case !in.EndsAt.After(in.StartsAt):
		return domain.Invalid("endsAt must be after startsAt")
	case in.TeamVesting.CliffSeconds < 0 || in.TeamVesting.DurationSeconds < 0:
		return domain.Invalid("teamVesting durations must not be negative")
	case in.LiquidityLock.Enabled && in.LiquidityLock.LockUntil == nil:
		return domain.Invalid("liquidityLock.lockUntil is required when enabled")
	}

	minBuy, maxBuy := in.buyLimits()
	switch {
	case !minBuy.IsPositive():
		return domain.Invalid("buyLimits.minBuyAmount must be positive")
	case maxBuy.LessThan(minBuy):
		return domain.Invalid("buyLimits.maxBuyAmount must not be below minBuyAmount")
	case maxBuy.GreaterThan(in.HardCap):
		return domain.Invalid("buyLimits.maxBuyAmount must not exceed hardCap")
	}

	for _, w := range in.whitelist() {
		if !validation.IsValidWallet(w) {
			return domain.Invalid("whitelist contains an invalid address")
		}
	}
	return nil
}

// buyLimits applies the defaults: min 1, max hardCap.
func (in *CreateLaunchInput) buyLimits() (decimal.Decimal, decimal.Decimal) {
	minBuy := decimal.NewFromInt(1)
	maxBuy := in.HardCap
	if in.BuyLimits != nil {
		if in.BuyLimits.MinBuyAmount != nil {
			minBuy = *in.BuyLimits.MinBuyAmount
		}
		if in.BuyLimits.MaxBuyAmount != nil {
			maxBuy = *in.BuyLimits.MaxBuyAmount
		}
	}
	return minBuy, maxBuy
}

func (in *CreateLaunchInput) whitelist() []string {
	if in.Whitelist == nil || !in.Whitelist.Enabled {
		return []string{}
	}
	return validation.NormalizeWallets(in.Whitelist.Addresses)
}

func (in *CreateLaunchInput) project(ownerID string) *domain.Project {
	return &domain.Project{
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Status:      domain.ProjectActive,
		HardCap:     in.HardCap,
		SoftCap:     in.SoftCap,
	}
}

func (in *CreateLaunchInput) sale() *domain.Sale {
	minBuy, maxBuy := in.buyLimits()
	return &domain.Sale{
		TokenSymbol:  in.TokenSymbol,
		TokenPrice:   in.TokenPrice,
		TotalSupply:  in.TotalSupply,
		RaisedAmount: decimal.Zero,
		State:        domain.SaleActive,
		StartsAt:     in.StartsAt.UTC(),
		EndsAt:       in.EndsAt.UTC(),
		TeamVesting: domain.TeamVesting{
			Enabled:         in.TeamVesting.Enabled,
			CliffSeconds:    in.TeamVesting.CliffSeconds,
			DurationSeconds: in.TeamVesting.DurationSeconds,
			UnlockStartAt:   in.TeamVesting.UnlockStartAt,
		},
		LiquidityLock: domain.LiquidityLock{
			Enabled:   in.LiquidityLock.Enabled,
			LockUntil: in.LiquidityLock.LockUntil,
		},
		MinBuyAmount:       minBuy,
		MaxBuyAmount:       maxBuy,
		WhitelistAddresses: in.whitelist(),
	}
}

// WhitelistUpdate is the update-whitelist payload.
type WhitelistUpdate struct {
	Enabled   bool     `json:"enabled"`
	Addresses []string `json:"addresses"`
}

func (u *WhitelistUpdate) normalized() ([]string, error) {
	if !u.Enabled {
		return []string{}, nil
	}
	out := validation.NormalizeWallets(u.Addresses)
	for _, w := range out {
		if !validation.IsValidWallet(w) {
			return nil, domain.Invalid("whitelist contains an invalid address")
		}
	}
	return out, nil
}
