package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/keylock"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Applier results recorded in metrics and logs.
const (
	ResultApplied   = "applied"
	ResultDuplicate = "duplicate"
	ResultMissing   = "missing_reference"
)

// Applier is the only writer of confirmed/refunded contribution status,
// raisedAmount and the finalized/refunded sale states.
type Applier struct {
	Store   *ledger.Store
	Locks   *keylock.Locker
	Metrics *metrics.Metrics
	Now     func() time.Time

	// OnApplied runs after an event commits.
	OnApplied func(ctx context.Context, launchID string)
}

func NewApplier(store *ledger.Store, locks *keylock.Locker, m *metrics.Metrics) *Applier {
	return &Applier{Store: store, Locks: locks, Metrics: m, Now: time.Now}
}

// Run consumes bus until ctx is done.
func (a *Applier) Run(ctx context.Context, bus Bus) error {
	log.Info().Msg("settlement applier started")
	defer log.Info().Msg("settlement applier stopped")
	return bus.Consume(ctx, a.Apply)
}

// Apply applies one event. Every event appends exactly one Tx. Missing
// references are logged and tolerated.
func (a *Applier) Apply(ctx context.Context, ev domain.SettlementEvent) error {
	if !domain.Settleable(ev.Type) {
		return fmt.Errorf("unsupported settlement event type %q", ev.Type)
	}
	start := time.Now()
	unlock := a.Locks.Lock(ev.LaunchID)
	defer unlock()

	var result string
	err := a.Store.Transaction(ctx, func(tx *ledger.Store) error {
		var err error
		switch ev.Type {
		case domain.EventContributionConfirmed:
			result, err = a.confirm(ctx, tx, ev)
		case domain.EventSaleFinalized:
			result, err = a.finalize(ctx, tx, ev)
		case domain.EventContributionRefunded:
			result, err = a.refund(ctx, tx, ev)
		}
		return err
	})
	if err != nil {
		a.Metrics.RecordSettlementApplied(ev.Type, "error", time.Since(start).Seconds())
		return err
	}

	a.Metrics.RecordSettlementApplied(ev.Type, result, time.Since(start).Seconds())
	if a.OnApplied != nil {
		a.OnApplied(ctx, ev.LaunchID)
	}
	logger := log.Info()
	if result == ResultMissing {
		logger = log.Warn()
	}
	logger.Str("type", ev.Type).
		Str("launch_id", ev.LaunchID).
		Str("contribution_id", ev.ContributionID).
		Str("result", result).
		Msg("settlement event applied")
	return nil
}

func (a *Applier) confirm(ctx context.Context, tx *ledger.Store, ev domain.SettlementEvent) (string, error) {
	result := ResultApplied
	meta := datatypes.JSONMap{}

	var c *domain.Contribution
	if ev.ContributionID != "" {
		var err error
		if c, err = tx.FindContribution(ctx, ev.ContributionID); err != nil {
			return "", err
		}
	}

	switch {
	case c == nil:
		result = ResultMissing
		meta["missingContribution"] = true
	case c.ProjectID != ev.LaunchID:
		result = ResultMissing
		meta["mismatchedLaunch"] = true
		meta["contributionLaunchId"] = c.ProjectID
	case c.Status != domain.ContributionPending:
		result = ResultDuplicate
		meta["duplicate"] = true
	default:
		launch, err := tx.FindLaunch(ctx, ev.LaunchID)
		if err != nil && !errors.Is(err, domain.ErrLaunchNotFound) {
			return "", err
		}
		hash := ev.TxHash
		c.TxHash = &hash
		switch {
		case launch == nil:
			c.Status = domain.ContributionConfirmed
			result = ResultMissing
			meta["missingLaunch"] = true
		case launch.Sale.State == domain.SaleRefunded:
			// Accepted while the refund was queued: the sale no longer takes funds.
			c.Status = domain.ContributionRefunded
			meta["refundedSale"] = true
		default:
			c.Status = domain.ContributionConfirmed
			launch.Sale.RaisedAmount = launch.Sale.RaisedAmount.Add(ev.Amount)
			if err := tx.SaveSale(ctx, &launch.Sale); err != nil {
				return "", err
			}
		}
		if err := tx.SaveContribution(ctx, c); err != nil {
			return "", err
		}
	}

	return result, tx.AppendTx(ctx, a.record(ev, domain.DirectionIn, domain.TxConfirmed, meta))
}

func (a *Applier) finalize(ctx context.Context, tx *ledger.Store, ev domain.SettlementEvent) (string, error) {
	result := ResultApplied
	meta := datatypes.JSONMap{}

	launch, err := tx.FindLaunch(ctx, ev.LaunchID)
	switch {
	case errors.Is(err, domain.ErrLaunchNotFound):
		result = ResultMissing
		meta["missingLaunch"] = true
	case err != nil:
		return "", err
	case launch.Sale.Terminal():
		result = ResultDuplicate
		meta["duplicate"] = true
		meta["saleState"] = launch.Sale.State
	default:
		now := a.Now().UTC()
		launch.Sale.State = domain.SaleFinalized
		launch.Sale.FinalizedAt = &now
		launch.Project.Status = domain.ProjectFinalized
		if err := tx.SaveSale(ctx, &launch.Sale); err != nil {
			return "", err
		}
		if err := tx.SaveProject(ctx, &launch.Project); err != nil {
			return "", err
		}
	}

	return result, tx.AppendTx(ctx, a.record(ev, domain.DirectionIn, domain.TxConfirmed, meta))
}

func (a *Applier) refund(ctx context.Context, tx *ledger.Store, ev domain.SettlementEvent) (string, error) {
	result := ResultApplied
	meta := datatypes.JSONMap{}

	launch, err := tx.FindLaunch(ctx, ev.LaunchID)
	if err != nil && !errors.Is(err, domain.ErrLaunchNotFound) {
		return "", err
	}

	if ev.ContributionID != "" {
		c, err := tx.FindContribution(ctx, ev.ContributionID)
		if err != nil {
			return "", err
		}
		switch {
		case c == nil:
			result = ResultMissing
			meta["missingContribution"] = true
		case c.ProjectID != ev.LaunchID:
			result = ResultMissing
			meta["mismatchedLaunch"] = true
			meta["contributionLaunchId"] = c.ProjectID
		case c.Status == domain.ContributionRefunded:
			result = ResultDuplicate
			meta["duplicate"] = true
		default:
			if c.Status == domain.ContributionConfirmed && launch != nil {
				launch.Sale.RaisedAmount = launch.Sale.RaisedAmount.Sub(c.Amount)
			}
			c.Status = domain.ContributionRefunded
			hash := ev.TxHash
			c.TxHash = &hash
			if err := tx.SaveContribution(ctx, c); err != nil {
				return "", err
			}
		}
	}

	if launch == nil {
		result = ResultMissing
		meta["missingLaunch"] = true
	} else if launch.Sale.State != domain.SaleFinalized {
		launch.Sale.State = domain.SaleRefunded
		launch.Project.Status = domain.ProjectRefunded
		if err := tx.SaveSale(ctx, &launch.Sale); err != nil {
			return "", err
		}
		if err := tx.SaveProject(ctx, &launch.Project); err != nil {
			return "", err
		}
	}

	return result, tx.AppendTx(ctx, a.record(ev, domain.DirectionOut, domain.TxRefunded, meta))
}

func (a *Applier) record(ev domain.SettlementEvent, direction, status string, meta datatypes.JSONMap) *domain.Tx {
	t := &domain.Tx{
		ProjectID: ev.LaunchID,
		TxHash:    ev.TxHash,
		Direction: direction,
		EventType: ev.Type,
		Amount:    ev.Amount,
		Status:    status,
		Metadata:  meta,
		CreatedAt: a.Now().UTC(),
	}
	if ev.ContributionID != "" {
		id := ev.ContributionID
		t.ContributionID = &id
	}
	if ev.WalletUserID != "" {
		id := ev.WalletUserID
		t.UserID = &id
	}
	return t
}
