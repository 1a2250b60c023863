package vesting

import (
	"context"
	"time"

	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/constants"
	"birthpad-backend/internal/pkg/keylock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Stats is a wallet's position in one launch.
type Stats struct {
	ProjectID       string          `json:"projectId"`
	PurchasedAmount decimal.Decimal `json:"purchasedAmount"`
	ClaimedAmount   decimal.Decimal `json:"claimedAmount"`
	UnlockedAmount  decimal.Decimal `json:"unlockedAmount"`
	ClaimableAmount decimal.Decimal `json:"claimableAmount"`
	UnlockRatio     decimal.Decimal `json:"unlockRatio"`
}

type ClaimResult struct {
	ProjectID     string          `json:"projectId"`
	TxHash        string          `json:"txHash"`
	ClaimedAmount decimal.Decimal `json:"claimedAmount"`
}

type Calculator struct {
	Store    *ledger.Store
	Resolver *identity.Resolver
	Locks    *keylock.Locker
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func NewCalculator(store *ledger.Store, resolver *identity.Resolver, locks *keylock.Locker, m *metrics.Metrics) *Calculator {
	return &Calculator{Store: store, Resolver: resolver, Locks: locks, Metrics: m, Now: time.Now}
}

// Compute derives Stats from a wallet's non-refunded contributions.
func Compute(projectID string, sale *domain.Sale, contributions []domain.Contribution, now time.Time) Stats {
	purchased := decimal.Zero
	claimed := decimal.Zero
	for _, c := range contributions {
		if c.Status == domain.ContributionRefunded {
			continue
		}
		purchased = purchased.Add(c.Amount)
		claimed = claimed.Add(c.ClaimedAmount)
	}
	ratio := UnlockRatio(sale, now)
	unlocked := purchased.Mul(ratio)
	claimable := unlocked.Sub(claimed)
	if claimable.IsNegative() {
		claimable = decimal.Zero
	}
	return Stats{
		ProjectID:       projectID,
		PurchasedAmount: purchased,
		ClaimedAmount:   claimed,
		UnlockedAmount:  unlocked,
		ClaimableAmount: claimable,
		UnlockRatio:     ratio,
	}
}

// Claimable returns the wallet's Stats for a launch. A wallet with no user
// record has zero everything.
func (c *Calculator) Claimable(ctx context.Context, wallet, projectID string) (*Stats, error) {
	launch, err := c.Store.FindLaunch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	user, err := c.Store.FindUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	var contributions []domain.Contribution
	if user != nil {
		if contributions, err = c.Store.WalletContributions(ctx, projectID, user.ID); err != nil {
			return nil, err
		}
	}
	stats := Compute(projectID, &launch.Sale, contributions, c.Now())
	return &stats, nil
}

// Claim moves the claimable balance into claimedAmount, oldest contribution
// first, and appends one aggregate ContributionClaimed record.
func (c *Calculator) Claim(ctx context.Context, wallet, projectID string) (*ClaimResult, error) {
	// The launch lock also excludes the settlement applier.
	unlock := c.Locks.Lock(projectID)
	defer unlock()

	var result *ClaimResult
	err := c.Store.Transaction(ctx, func(tx *ledger.Store) error {
		launch, err := tx.FindLaunch(ctx, projectID)
		if err != nil {
			return err
		}
		if launch.Sale.State != domain.SaleFinalized {
			return domain.ErrSaleNotFinalized
		}
		user, err := c.Resolver.EnsureUser(ctx, tx, wallet, constants.Investor)
		if err != nil {
			return err
		}
		contributions, err := tx.WalletContributions(ctx, projectID, user.ID)
		if err != nil {
			return err
		}
		stats := Compute(projectID, &launch.Sale, contributions, c.Now())
		if !stats.ClaimableAmount.IsPositive() {
			return domain.ErrNothingToClaim
		}

		remaining := stats.ClaimableAmount
		for i := range contributions {
			if !remaining.IsPositive() {
				break
			}
			contrib := &contributions[i]
			available := contrib.Available()
			if !available.IsPositive() {
				continue
			}
			take := decimal.Min(available, remaining)
			contrib.ClaimedAmount = contrib.ClaimedAmount.Add(take)
			if err := tx.SetClaimedAmount(ctx, contrib); err != nil {
				return err
			}
			remaining = remaining.Sub(take)
		}

		claimed := stats.ClaimableAmount.Sub(remaining)
		userID := user.ID
		record := &domain.Tx{
			ProjectID: projectID,
			UserID:    &userID,
			TxHash:    ledger.NewTxHash(),
			Direction: domain.DirectionOut,
			EventType: domain.EventContributionClaimed,
			Amount:    claimed,
			Status:    domain.TxConfirmed,
			Metadata:  map[string]interface{}{"unlockRatio": stats.UnlockRatio.String()},
		}
		if err := tx.AppendTx(ctx, record); err != nil {
			return err
		}
		result = &ClaimResult{ProjectID: projectID, TxHash: record.TxHash, ClaimedAmount: claimed}
		return nil
	})
	c.Metrics.RecordClaim(metrics.Outcome(err))
	if err != nil {
		return nil, err
	}
	log.Info().Str("project_id", projectID).Str("wallet", wallet).Str("amount", result.ClaimedAmount.String()).Msg("claim recorded")
	return result, nil
}
