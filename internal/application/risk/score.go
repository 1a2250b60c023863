// Package risk scores a launch on concentration, diversity and demand.
package risk

import (
	"context"
	"time"

	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	FlagWhaleHigh    = "whale_concentration_high"
	FlagWhaleMedium  = "whale_concentration_medium"
	FlagLowDiversity = "low_contributor_diversity"
	FlagNarrowList   = "narrow_whitelist"
	FlagWeakDemand   = "weak_demand"
	FlagSalePaused   = "sale_paused"
)

type Report struct {
	Score              int             `json:"score"`
	Flags              []string        `json:"flags"`
	TopWalletShare     decimal.Decimal `json:"topWalletShare"`
	UniqueContributors int             `json:"uniqueContributors"`
	WhitelistSize      int             `json:"whitelistSize"`
	TotalContributed   decimal.Decimal `json:"totalContributed"`
}

var hundred = decimal.NewFromInt(100)

// Score evaluates a launch from its non-refunded contributions.
func Score(project *domain.Project, sale *domain.Sale, contributions []domain.Contribution, now time.Time) Report {
	byWallet := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, c := range contributions {
		if c.Status == domain.ContributionRefunded {
			continue
		}
		byWallet[c.UserID] = byWallet[c.UserID].Add(c.Amount)
		total = total.Add(c.Amount)
	}

	top := decimal.Zero
	for _, v := range byWallet {
		if v.GreaterThan(top) {
			top = v
		}
	}
	share := decimal.Zero
	if total.IsPositive() {
		share = top.Div(total).Mul(hundred)
	}

	score := 100
	flags := []string{}
	switch {
	case share.GreaterThanOrEqual(decimal.NewFromInt(50)):
		score -= 35
		flags = append(flags, FlagWhaleHigh)
	case share.GreaterThanOrEqual(decimal.NewFromInt(30)):
		score -= 20
		flags = append(flags, FlagWhaleMedium)
	}

	unique := len(byWallet)
	if unique > 0 && unique < 3 {
		score -= 15
		flags = append(flags, FlagLowDiversity)
	}

	whitelist := len(sale.WhitelistAddresses)
	if whitelist > 0 && whitelist < 4 {
		score -= 10
		flags = append(flags, FlagNarrowList)
	}

	midpoint := sale.StartsAt.Add(sale.EndsAt.Sub(sale.StartsAt) / 2)
	if now.After(midpoint) && sale.RaisedAmount.LessThan(project.SoftCap.Mul(decimal.NewFromFloat(0.25))) {
		score -= 15
		flags = append(flags, FlagWeakDemand)
	}

	if sale.State == domain.SalePaused {
		score -= 10
		flags = append(flags, FlagSalePaused)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Report{
		Score:              score,
		Flags:              flags,
		TopWalletShare:     share.Round(2),
		UniqueContributors: unique,
		WhitelistSize:      whitelist,
		TotalContributed:   total,
	}
}

// Scorer loads a launch and scores it.
type Scorer struct {
	Store *ledger.Store
	Now   func() time.Time
}

func NewScorer(store *ledger.Store) *Scorer {
	return &Scorer{Store: store, Now: time.Now}
}

func (s *Scorer) Report(ctx context.Context, projectID string) (*Report, error) {
	launch, err := s.Store.FindLaunch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.ReportFor(ctx, launch)
}

func (s *Scorer) ReportFor(ctx context.Context, launch *ledger.Launch) (*Report, error) {
	contributions, err := s.Store.Contributions(ctx, launch.Project.ID)
	if err != nil {
		return nil, err
	}
	r := Score(&launch.Project, &launch.Sale, contributions, s.Now())
	return &r, nil
}
