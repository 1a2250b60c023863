// Package launches creates launches, serves their read views and runs the
// guarded sale lifecycle transitions.
package launches

import (
	"context"
	"sort"
	"time"

	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/application/risk"
	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/infrastructure/cache"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/constants"
	"birthpad-backend/internal/pkg/keylock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	SortAll      = "all"
	SortTrending = "trending"
	SortNew      = "new"

	listTTL     = 30 * time.Second
	progressTTL = 15 * time.Second
)

type Service struct {
	Store    *ledger.Store
	Resolver *identity.Resolver
	Bus      settlement.Bus
	Locks    *keylock.Locker
	Scorer   *risk.Scorer
	Cache    cache.Cache
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func NewService(store *ledger.Store, resolver *identity.Resolver, bus settlement.Bus, locks *keylock.Locker, c cache.Cache, m *metrics.Metrics) *Service {
	if c == nil {
		c = (*cache.Redis)(nil)
	}
	return &Service{
		Store:    store,
		Resolver: resolver,
		Bus:      bus,
		Locks:    locks,
		Scorer:   risk.NewScorer(store),
		Cache:    c,
		Metrics:  m,
		Now:      time.Now,
	}
}

type Created struct {
	Project domain.Project `json:"project"`
	Sale    domain.Sale    `json:"sale"`
}

type ListItem struct {
	domain.Project
	RaisedAmount decimal.Decimal `json:"raisedAmount"`
}

type Progress struct {
	Raised   decimal.Decimal `json:"raised"`
	HardCap  decimal.Decimal `json:"hardCap"`
	Progress float64         `json:"progress"`
}

type Detail struct {
	Project  domain.Project `json:"project"`
	Sale     domain.Sale    `json:"sale"`
	Progress Progress       `json:"progress"`
	Risk     risk.Report    `json:"risk"`
}

// CreateLaunch stores a Project and its Sale atomically. The creator is
// materialized as a founder unless it already has a stored role.
func (s *Service) CreateLaunch(ctx context.Context, actor identity.Actor, in CreateLaunchInput) (*Created, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out Created
	err := s.Store.Transaction(ctx, func(tx *ledger.Store) error {
		owner, err := s.Resolver.EnsureUser(ctx, tx, actor.Wallet, constants.Founder)
		if err != nil {
			return err
		}
		l := &ledger.Launch{Project: *in.project(owner.ID), Sale: *in.sale()}
		if err := tx.CreateLaunch(ctx, l); err != nil {
			return err
		}
		out = Created{Project: l.Project, Sale: l.Sale}
		return nil
	})
	s.Metrics.RecordLifecycle("create", metrics.Outcome(err))
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, "")
	log.Info().Str("project_id", out.Project.ID).Str("owner", actor.Wallet).Msg("launch created")
	return &out, nil
}

// List returns launches ordered by sort: trending by raised amount, new by
// newest first, anything else oldest first.
func (s *Service) List(ctx context.Context, sortBy string) ([]ListItem, error) {
	if sortBy != SortTrending && sortBy != SortNew {
		sortBy = SortAll
	}
	key := "launches:list:" + sortBy
	var cached []ListItem
	if hit, err := s.Cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	launches, err := s.Store.ListLaunches(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]ListItem, len(launches))
	for i, l := range launches {
		items[i] = ListItem{Project: l.Project, RaisedAmount: l.Sale.RaisedAmount}
	}
	switch sortBy {
	case SortTrending:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].RaisedAmount.GreaterThan(items[j].RaisedAmount)
		})
	case SortNew:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}

	if err := s.Cache.Set(ctx, key, items, listTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return items, nil
}

// Get returns the launch with its progress and risk report.
func (s *Service) Get(ctx context.Context, projectID string) (*Detail, error) {
	l, err := s.Store.FindLaunch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	report, err := s.Scorer.ReportFor(ctx, l)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Project:  l.Project,
		Sale:     l.Sale,
		Progress: s.progress(ctx, l),
		Risk:     *report,
	}, nil
}

// Risk returns only the risk report of a launch.
func (s *Service) Risk(ctx context.Context, projectID string) (*risk.Report, error) {
	return s.Scorer.Report(ctx, projectID)
}

func (s *Service) progress(ctx context.Context, l *ledger.Launch) Progress {
	key := "launches:progress:" + l.Project.ID
	var p Progress
	if hit, err := s.Cache.Get(ctx, key, &p); err == nil && hit {
		return p
	}
	p = ComputeProgress(l.Sale.RaisedAmount, l.Project.HardCap)
	if err := s.Cache.Set(ctx, key, p, progressTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return p
}

// ComputeProgress returns min(100, raised / max(1, hardCap) * 100).
func ComputeProgress(raised, hardCap decimal.Decimal) Progress {
	denom := decimal.Max(hardCap, decimal.NewFromInt(1))
	pct := raised.Div(denom).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
	}
	return Progress{Raised: raised, HardCap: hardCap, Progress: pct.InexactFloat64()}
}

// Invalidate drops cached views for a launch and every list ordering.
func (s *Service) Invalidate(ctx context.Context, projectID string) {
	s.invalidate(ctx, projectID)
}

func (s *Service) invalidate(ctx context.Context, projectID string) {
	keys := []string{"launches:list:" + SortAll, "launches:list:" + SortTrending, "launches:list:" + SortNew}
	if projectID != "" {
		keys = append(keys, "launches:progress:"+projectID)
	}
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("project_id", projectID).Msg("cache invalidation failed")
	}
}
