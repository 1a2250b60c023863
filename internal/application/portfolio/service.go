package portfolio

import (
	"context"
	"time"

	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/application/vesting"
	"birthpad-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Service encapsulates portfolio reads.
type Service struct {
	Store *ledger.Store
	Now   func() time.Time
}

func NewService(store *ledger.Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

// Position is a wallet's standing in one launch.
type Position struct {
	ProjectID       string          `json:"projectId"`
	ProjectName     string          `json:"projectName"`
	ProjectStatus   string          `json:"projectStatus"`
	SaleState       string          `json:"saleState"`
	TokenSymbol     string          `json:"tokenSymbol"`
	Contributions   int             `json:"contributions"`
	PendingAmount   decimal.Decimal `json:"pendingAmount"`
	RefundedAmount  decimal.Decimal `json:"refundedAmount"`
	PurchasedAmount decimal.Decimal `json:"purchasedAmount"`
	ClaimedAmount   decimal.Decimal `json:"claimedAmount"`
	ClaimableAmount decimal.Decimal `json:"claimableAmount"`
	UnlockRatio     decimal.Decimal `json:"unlockRatio"`
}

// Positions groups a wallet's contributions by launch, in order of first contribution.
// An unknown wallet has an empty portfolio.
func (s *Service) Positions(ctx context.Context, wallet string) ([]Position, error) {
	if wallet == "" {
		return nil, domain.Invalid("wallet is required")
	}
	user, err := s.Store.FindUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []Position{}, nil
	}
	contributions, err := s.Store.UserContributions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var order []string
	byProject := map[string][]domain.Contribution{}
	for _, c := range contributions {
		if _, ok := byProject[c.ProjectID]; !ok {
			order = append(order, c.ProjectID)
		}
		byProject[c.ProjectID] = append(byProject[c.ProjectID], c)
	}

	now := s.Now()
	out := make([]Position, 0, len(order))
	for _, pid := range order {
		launch, err := s.Store.FindLaunch(ctx, pid)
		if err != nil {
			return nil, err
		}
		out = append(out, position(launch, byProject[pid], now))
	}
	return out, nil
}

func position(launch *ledger.Launch, contributions []domain.Contribution, now time.Time) Position {
	stats := vesting.Compute(launch.Project.ID, &launch.Sale, contributions, now)
	pending := decimal.Zero
	refunded := decimal.Zero
	for _, c := range contributions {
		switch c.Status {
		case domain.ContributionPending:
			pending = pending.Add(c.Amount)
		case domain.ContributionRefunded:
			refunded = refunded.Add(c.Amount)
		}
	}
	claimable := stats.ClaimableAmount
	if launch.Sale.State != domain.SaleFinalized {
		claimable = decimal.Zero
	}
	return Position{
		ProjectID:       launch.Project.ID,
		ProjectName:     launch.Project.Name,
		ProjectStatus:   launch.Project.Status,
		SaleState:       launch.Sale.State,
		TokenSymbol:     launch.Sale.TokenSymbol,
		Contributions:   len(contributions),
		PendingAmount:   pending,
		RefundedAmount:  refunded,
		PurchasedAmount: stats.PurchasedAmount,
		ClaimedAmount:   stats.ClaimedAmount,
		ClaimableAmount: claimable,
		UnlockRatio:     stats.UnlockRatio,
	}
}
