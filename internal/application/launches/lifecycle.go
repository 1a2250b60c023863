package launches

import (
	"context"
	"fmt"

	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/constants"

	"github.com/rs/zerolog/log"
)

const (
	StatusPaused             = "paused"
	StatusResumed            = "resumed"
	StatusFinalizationQueued = "finalization_queued"
	StatusRefundQueued       = "refund_queued"
)

// TransitionResult is the response of a lifecycle transition.
type TransitionResult struct {
	Status      string `json:"status"`
	SaleState   string `json:"saleState,omitempty"`
	RefundCount *int   `json:"refundCount,omitempty"`
}

type WhitelistResult struct {
	WhitelistEnabled bool `json:"whitelistEnabled"`
	WhitelistCount   int  `json:"whitelistCount"`
}

// step mutates a locked launch inside a transaction and returns the events to
// publish once the transaction commits.
type step func(tx *ledger.Store, l *ledger.Launch, admin bool) ([]domain.SettlementEvent, error)

// transition runs fn under the launch lock after checking that actor owns the
// launch or is an admin.
func (s *Service) transition(ctx context.Context, actor identity.Actor, projectID, op string, fn step) error {
	unlock := s.Locks.Lock(projectID)
	defer unlock()

	var events []domain.SettlementEvent
	err := s.Store.Transaction(ctx, func(tx *ledger.Store) error {
		l, err := tx.FindLaunch(ctx, projectID)
		if err != nil {
			return err
		}
		admin, err := s.authorize(ctx, tx, actor, l)
		if err != nil {
			return err
		}
		events, err = fn(tx, l, admin)
		return err
	})
	s.Metrics.RecordLifecycle(op, metrics.Outcome(err))
	if err != nil {
		return err
	}

	for _, ev := range events {
		settlement.Emit(ctx, s.Bus, s.Metrics, ev)
	}
	s.invalidate(ctx, projectID)
	log.Info().Str("op", op).Str("project_id", projectID).Str("actor", actor.Wallet).Int("events", len(events)).Msg("lifecycle transition")
	return nil
}

func (s *Service) authorize(ctx context.Context, tx *ledger.Store, actor identity.Actor, l *ledger.Launch) (bool, error) {
	if actor.Role == constants.Admin {
		return true, nil
	}
	u, err := tx.FindUserByWallet(ctx, actor.Wallet)
	if err != nil {
		return false, err
	}
	if u == nil || u.ID != l.Project.OwnerID {
		return false, domain.ErrForbidden
	}
	return false, nil
}

// Pause moves an active sale to paused.
func (s *Service) Pause(ctx context.Context, actor identity.Actor, projectID string) (*TransitionResult, error) {
	err := s.transition(ctx, actor, projectID, "pause", func(tx *ledger.Store, l *ledger.Launch, _ bool) ([]domain.SettlementEvent, error) {
		if l.Sale.State != domain.SaleActive {
			return nil, domain.ErrPauseNotAllowed
		}
		l.Sale.State = domain.SalePaused
		return nil, tx.SaveSale(ctx, &l.Sale)
	})
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Status: StatusPaused, SaleState: domain.SalePaused}, nil
}

// Resume moves a paused sale back to active while its window is open.
func (s *Service) Resume(ctx context.Context, actor identity.Actor, projectID string) (*TransitionResult, error) {
	err := s.transition(ctx, actor, projectID, "resume", func(tx *ledger.Store, l *ledger.Launch, _ bool) ([]domain.SettlementEvent, error) {
		if l.Sale.State != domain.SalePaused {
			return nil, domain.ErrNotPaused
		}
		if s.Now().After(l.Sale.EndsAt) {
			return nil, domain.ErrSaleEnded
		}
		l.Sale.State = domain.SaleActive
		return nil, tx.SaveSale(ctx, &l.Sale)
	})
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Status: StatusResumed, SaleState: domain.SaleActive}, nil
}

// Finalize queues a SaleFinalized event. Owners may finalize once the hard cap
// is reached or the window has ended; admins at any time.
func (s *Service) Finalize(ctx context.Context, actor identity.Actor, projectID string) (*TransitionResult, error) {
	err := s.transition(ctx, actor, projectID, "finalize", func(tx *ledger.Store, l *ledger.Launch, admin bool) ([]domain.SettlementEvent, error) {
		if l.Sale.State != domain.SaleActive {
			return nil, domain.ErrFinalizeNotAllowed
		}
		if !admin {
			capped := l.Sale.RaisedAmount.GreaterThanOrEqual(l.Project.HardCap)
			ended := s.Now().After(l.Sale.EndsAt)
			if !capped && !ended {
				return nil, domain.ErrFinalizeNotAllowed
			}
		}
		return []domain.SettlementEvent{{
			Type:     domain.EventSaleFinalized,
			LaunchID: l.Project.ID,
			TxHash:   ledger.NewTxHash(),
			Amount:   l.Sale.RaisedAmount,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Status: StatusFinalizationQueued}, nil
}

// Refund queues one ContributionRefunded event per non-refunded contribution.
// Owners may refund only after the window ended below the soft cap.
func (s *Service) Refund(ctx context.Context, actor identity.Actor, projectID string) (*TransitionResult, error) {
	count := 0
	err := s.transition(ctx, actor, projectID, "refund", func(tx *ledger.Store, l *ledger.Launch, admin bool) ([]domain.SettlementEvent, error) {
		if l.Sale.State != domain.SaleActive {
			return nil, domain.ErrRefundNotAllowed
		}
		if !admin {
			ended := s.Now().After(l.Sale.EndsAt)
			failed := l.Sale.RaisedAmount.LessThan(l.Project.SoftCap)
			if !ended || !failed {
				return nil, domain.ErrRefundNotAllowed
			}
		}
		contributions, err := tx.Contributions(ctx, l.Project.ID)
		if err != nil {
			return nil, fmt.Errorf("load contributions: %w", err)
		}
		var events []domain.SettlementEvent
		for _, c := range contributions {
			if c.Status == domain.ContributionRefunded {
				continue
			}
			events = append(events, domain.SettlementEvent{
				Type:           domain.EventContributionRefunded,
				LaunchID:       l.Project.ID,
				ContributionID: c.ID,
				WalletUserID:   c.UserID,
				TxHash:         ledger.NewTxHash(),
				Amount:         c.Amount,
			})
		}
		count = len(events)
		if count == 0 {
			events = append(events, domain.SettlementEvent{
				Type:     domain.EventContributionRefunded,
				LaunchID: l.Project.ID,
				TxHash:   ledger.NewTxHash(),
			})
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Status: StatusRefundQueued, RefundCount: &count}, nil
}

// UpdateWhitelist replaces the sale's whitelist. Disabling clears it.
func (s *Service) UpdateWhitelist(ctx context.Context, actor identity.Actor, projectID string, in WhitelistUpdate) (*WhitelistResult, error) {
	addresses, err := in.normalized()
	if err != nil {
		return nil, err
	}
	err = s.transition(ctx, actor, projectID, "whitelist", func(tx *ledger.Store, l *ledger.Launch, _ bool) ([]domain.SettlementEvent, error) {
		if l.Sale.Terminal() {
			return nil, domain.ErrWhitelistLocked
		}
		l.Sale.WhitelistAddresses = addresses
		return nil, tx.SaveSale(ctx, &l.Sale)
	})
	if err != nil {
		return nil, err
	}
	return &WhitelistResult{WhitelistEnabled: len(addresses) > 0, WhitelistCount: len(addresses)}, nil
}
