// Package vesting computes unlock ratios and claimable balances and performs claims.
package vesting

import (
	"time"

	"birthpad-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// UnlockRatio returns the unlocked fraction of purchased tokens in [0, 1].
func UnlockRatio(sale *domain.Sale, now time.Time) decimal.Decimal {
	if sale.State != domain.SaleFinalized {
		return decimal.Zero
	}
	v := sale.TeamVesting
	if !v.Enabled {
		return decimal.NewFromInt(1)
	}

	start := sale.EndsAt
	switch {
	case v.UnlockStartAt != nil:
		start = *v.UnlockStartAt
	case sale.FinalizedAt != nil:
		start = *sale.FinalizedAt
	}

	if now.Before(start.Add(time.Duration(v.CliffSeconds) * time.Second)) {
		return decimal.Zero
	}
	if v.DurationSeconds <= 0 {
		return decimal.NewFromInt(1)
	}

	elapsed := decimal.NewFromFloat(now.Sub(start).Seconds())
	ratio := elapsed.Div(decimal.NewFromInt(v.DurationSeconds))
	if ratio.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return ratio
}
