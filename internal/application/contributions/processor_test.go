package contributions

import (
	"context"
	"testing"
	"time"

	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/infrastructure/database"
	"birthpad-backend/internal/pkg/keylock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	proc    *Processor
	bus     *settlement.MemoryBus
	applier *settlement.Applier
	store   *ledger.Store
	launch  *ledger.Launch
}

func newHarness(t *testing.T, mutate func(l *ledger.Launch)) *harness {
	t.Helper()
	store := ledger.New(database.NewTestDB(t))
	ctx := context.Background()
	owner, err := store.EnsureUser(ctx, "0xowner", "founder", false)
	require.NoError(t, err)

	now := time.Now().UTC()
	l := &ledger.Launch{
		Project: domain.Project{OwnerID: owner.ID, Name: "Demo", Status: domain.ProjectActive, HardCap: decimal.NewFromInt(1000), SoftCap: decimal.NewFromInt(100)},
		Sale: domain.Sale{
			TokenSymbol: "DMO", TokenPrice: decimal.NewFromInt(1), TotalSupply: decimal.NewFromInt(1000000),
			RaisedAmount: decimal.Zero, State: domain.SaleActive,
			StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
			MinBuyAmount: decimal.NewFromInt(1), MaxBuyAmount: decimal.NewFromInt(1000),
		},
	}
	if mutate != nil {
		mutate(l)
	}
	require.NoError(t, store.CreateLaunch(ctx, l))

	locks := &keylock.Locker{}
	bus := settlement.NewMemoryBus()
	resolver := identity.NewResolver(store, nil)
	return &harness{
		proc:    NewProcessor(store, resolver, bus, locks, nil),
		bus:     bus,
		applier: settlement.NewApplier(store, locks, nil),
		store:   store,
		launch:  l,
	}
}

func (h *harness) buy(wallet string, amount int64) (*BuyResult, error) {
	return h.proc.Buy(context.Background(), wallet, h.launch.Project.ID, BuyInput{Amount: decimal.NewFromInt(amount)})
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	_, err := h.bus.Drain(context.Background(), h.applier.Apply)
	require.NoError(t, err)
}

func TestBuy_QueuesAndConfirms(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res, err := h.buy("0xinv", 250)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, res.Status)
	assert.Contains(t, res.ContributionID, "c_")
	assert.Equal(t, 1, h.bus.Len())

	c, err := h.store.FindContribution(ctx, res.ContributionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContributionPending, c.Status)

	h.settle(t)

	c, err = h.store.FindContribution(ctx, res.ContributionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContributionConfirmed, c.Status)
	l, err := h.store.FindLaunch(ctx, h.launch.Project.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250).Equal(l.Sale.RaisedAmount))

	u, err := h.store.FindUserByWallet(ctx, "0xinv")
	require.NoError(t, err)
	assert.Equal(t, "investor", u.Role)

	txs, err := h.store.ListTxs(ctx, ledger.TxFilter{ProjectID: h.launch.Project.ID})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestBuy_AmountBoundaries(t *testing.T) {
	h := newHarness(t, func(l *ledger.Launch) {
		l.Project.HardCap = decimal.NewFromInt(10000)
		l.Sale.MinBuyAmount = decimal.NewFromInt(10)
		l.Sale.MaxBuyAmount = decimal.NewFromInt(500)
	})

	_, err := h.buy("0xa", 9)
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	_, err = h.buy("0xa", 501)
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	_, err = h.buy("0xa", 500)
	assert.NoError(t, err)
	_, err = h.buy("0xa", 10)
	assert.ErrorIs(t, err, domain.ErrPerWalletCapExceeded)
}

func TestBuy_HardCapIncludesPending(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.buy("0xa", 999)
	require.NoError(t, err)
	_, err = h.buy("0xb", 2)
	assert.ErrorIs(t, err, domain.ErrHardCapExceeded)
	_, err = h.buy("0xb", 1)
	assert.NoError(t, err)

	h.settle(t)
	l, err := h.store.FindLaunch(context.Background(), h.launch.Project.ID)
	require.NoError(t, err)
	assert.True(t, l.Sale.RaisedAmount.Equal(l.Project.HardCap))
}

func TestBuy_Gates(t *testing.T) {
	t.Run("paused", func(t *testing.T) {
		h := newHarness(t, func(l *ledger.Launch) { l.Sale.State = domain.SalePaused })
		_, err := h.buy("0xa", 10)
		assert.ErrorIs(t, err, domain.ErrSaleNotActive)
	})
	t.Run("not whitelisted", func(t *testing.T) {
		h := newHarness(t, func(l *ledger.Launch) { l.Sale.WhitelistAddresses = []string{"0xlisted"} })
		_, err := h.buy("0xa", 10)
		assert.ErrorIs(t, err, domain.ErrNotWhitelisted)
		_, err = h.buy("0xlisted", 10)
		assert.NoError(t, err)
	})
	t.Run("before start", func(t *testing.T) {
		h := newHarness(t, func(l *ledger.Launch) { l.Sale.StartsAt, l.Sale.EndsAt = time.Now().Add(time.Hour), time.Now().Add(2*time.Hour) })
		_, err := h.buy("0xa", 10)
		assert.ErrorIs(t, err, domain.ErrSaleClosed)
	})
	t.Run("unknown launch", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.proc.Buy(context.Background(), "0xa", "p_missing", BuyInput{Amount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, domain.ErrLaunchNotFound)
	})
}

func TestBuy_RejectedBuyLeavesNoUser(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.buy("0xa", 5000)
	require.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	u, err := h.store.FindUserByWallet(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Nil(t, u)
}
