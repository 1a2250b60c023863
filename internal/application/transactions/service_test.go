package transactions

import (
	"context"
	"testing"
	"time"

	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/infrastructure/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Service, string) {
	t.Helper()
	store := ledger.New(database.NewTestDB(t))
	ctx := context.Background()
	owner, err := store.EnsureUser(ctx, "0xowner", "founder", false)
	require.NoError(t, err)
	inv, err := store.EnsureUser(ctx, "0xinv", "investor", false)
	require.NoError(t, err)

	now := time.Now().UTC()
	l := &ledger.Launch{
		Project: domain.Project{OwnerID: owner.ID, Name: "Feed", Status: domain.ProjectActive, HardCap: decimal.NewFromInt(100), SoftCap: decimal.NewFromInt(10)},
		Sale: domain.Sale{
			TokenSymbol: "FD", TokenPrice: decimal.NewFromInt(1), TotalSupply: decimal.NewFromInt(100),
			RaisedAmount: decimal.Zero, State: domain.SaleActive, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
			MinBuyAmount: decimal.NewFromInt(1), MaxBuyAmount: decimal.NewFromInt(100),
		},
	}
	require.NoError(t, store.CreateLaunch(ctx, l))
	for i := 0; i < 3; i++ {
		uid := inv.ID
		require.NoError(t, store.AppendTx(ctx, &domain.Tx{
			ProjectID: l.Project.ID, UserID: &uid, TxHash: ledger.NewTxHash(),
			Direction: domain.DirectionIn, EventType: domain.EventContributionSubmitted,
			Amount: decimal.NewFromInt(int64(i + 1)), Status: domain.TxPending,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.AppendTx(ctx, &domain.Tx{
		ProjectID: l.Project.ID, TxHash: ledger.NewTxHash(),
		Direction: domain.DirectionIn, EventType: domain.EventSaleFinalized,
		Amount: decimal.Zero, Status: domain.TxConfirmed, CreatedAt: now.Add(5 * time.Second),
	}))
	return &Service{Store: store}, l.Project.ID
}

func TestFeed_NewestFirstWithNames(t *testing.T) {
	svc, pid := seed(t)
	out, err := svc.Feed(context.Background(), Query{ProjectID: pid})
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, domain.EventSaleFinalized, out[0].EventType)
	assert.Nil(t, out[0].Wallet)
	require.NotNil(t, out[1].Wallet)
	assert.Equal(t, "0xinv", *out[1].Wallet)
	assert.Equal(t, "3", out[1].Amount.String())
	require.NotNil(t, out[1].ProjectName)
	assert.Equal(t, "Feed", *out[1].ProjectName)
}

func TestFeed_WalletAndLimit(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()

	out, err := svc.Feed(ctx, Query{Wallet: "0xinv", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = svc.Feed(ctx, Query{Wallet: "0xnobody"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, MaxLimit, clampLimit(10_000))
}
