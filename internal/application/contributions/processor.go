// Package contributions validates and records buys.
package contributions

import (
	"context"
	"time"

	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/constants"
	"birthpad-backend/internal/pkg/keylock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const StatusQueued = "queued"

type BuyInput struct {
	Amount decimal.Decimal `json:"amount"`
}

type BuyResult struct {
	ContributionID string `json:"contributionId"`
	TxHash         string `json:"txHash"`
	Status         string `json:"status"`
}

type Processor struct {
	Store      *ledger.Store
	Resolver   *identity.Resolver
	Bus        settlement.Bus
	Locks      *keylock.Locker
	Metrics    *metrics.Metrics
	Now        func() time.Time
	Invalidate func(ctx context.Context, projectID string)
}

func NewProcessor(store *ledger.Store, resolver *identity.Resolver, bus settlement.Bus, locks *keylock.Locker, m *metrics.Metrics) *Processor {
	return &Processor{Store: store, Resolver: resolver, Bus: bus, Locks: locks, Metrics: m, Now: time.Now}
}

// Buy records a pending contribution and queues its confirmation.
func (p *Processor) Buy(ctx context.Context, wallet, projectID string, in BuyInput) (*BuyResult, error) {
	unlock := p.Locks.Lock(projectID)
	defer unlock()

	var (
		result BuyResult
		event  domain.SettlementEvent
	)
	err := p.Store.Transaction(ctx, func(tx *ledger.Store) error {
		l, err := tx.FindLaunch(ctx, projectID)
		if err != nil {
			return err
		}
		if err := p.checkSale(l, wallet, in.Amount); err != nil {
			return err
		}

		user, err := p.Resolver.EnsureUser(ctx, tx, wallet, constants.Investor)
		if err != nil {
			return err
		}
		if err := p.checkCaps(ctx, tx, l, user.ID, in.Amount); err != nil {
			return err
		}

		c := &domain.Contribution{
			ProjectID:     l.Project.ID,
			SaleID:        l.Sale.ID,
			UserID:        user.ID,
			Amount:        in.Amount,
			ClaimedAmount: decimal.Zero,
			Status:        domain.ContributionPending,
		}
		if err := tx.CreateContribution(ctx, c); err != nil {
			return err
		}

		hash := ledger.NewTxHash()
		contributionID, userID := c.ID, user.ID
		if err := tx.AppendTx(ctx, &domain.Tx{
			ProjectID:      l.Project.ID,
			ContributionID: &contributionID,
			UserID:         &userID,
			TxHash:         hash,
			Direction:      domain.DirectionIn,
			EventType:      domain.EventContributionSubmitted,
			Amount:         in.Amount,
			Status:         domain.TxPending,
		}); err != nil {
			return err
		}

		result = BuyResult{ContributionID: c.ID, TxHash: hash, Status: StatusQueued}
		event = domain.SettlementEvent{
			Type:           domain.EventContributionConfirmed,
			LaunchID:       l.Project.ID,
			ContributionID: c.ID,
			WalletUserID:   user.ID,
			TxHash:         hash,
			Amount:         in.Amount,
		}
		return nil
	})
	p.Metrics.RecordBuy(metrics.Outcome(err))
	if err != nil {
		return nil, err
	}

	settlement.Emit(ctx, p.Bus, p.Metrics, event)
	if p.Invalidate != nil {
		p.Invalidate(ctx, projectID)
	}
	log.Info().Str("project_id", projectID).Str("wallet", wallet).Str("amount", in.Amount.String()).Str("contribution_id", result.ContributionID).Msg("contribution queued")
	return &result, nil
}

func (p *Processor) checkSale(l *ledger.Launch, wallet string, amount decimal.Decimal) error {
	if l.Project.Status != domain.ProjectActive || l.Sale.State != domain.SaleActive {
		return domain.ErrSaleNotActive
	}
	if !l.Sale.Whitelisted(wallet) {
		return domain.ErrNotWhitelisted
	}
	now := p.Now()
	if now.Before(l.Sale.StartsAt) || now.After(l.Sale.EndsAt) {
		return domain.ErrSaleClosed
	}
	if amount.LessThan(l.Sale.MinBuyAmount) || amount.GreaterThan(l.Sale.MaxBuyAmount) {
		return domain.ErrAmountOutOfRange
	}
	return nil
}

// checkCaps counts pending and confirmed contributions against the hard cap
// and the per-wallet allocation.
func (p *Processor) checkCaps(ctx context.Context, tx *ledger.Store, l *ledger.Launch, userID string, amount decimal.Decimal) error {
	all, err := tx.Contributions(ctx, l.Project.ID)
	if err != nil {
		return err
	}
	committed := decimal.Zero
	walletTotal := decimal.Zero
	for _, c := range all {
		if c.Status == domain.ContributionRefunded {
			continue
		}
		committed = committed.Add(c.Amount)
		if c.UserID == userID {
			walletTotal = walletTotal.Add(c.Amount)
		}
	}
	if decimal.Max(committed, l.Sale.RaisedAmount).Add(amount).GreaterThan(l.Project.HardCap) {
		return domain.ErrHardCapExceeded
	}
	if walletTotal.Add(amount).GreaterThan(l.Sale.MaxBuyAmount) {
		return domain.ErrPerWalletCapExceeded
	}
	return nil
}
