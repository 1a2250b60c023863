package launches

import (
	"context"
	"testing"
	"time"

	"birthpad-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauseResume(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID

	res, err := e.svc.Pause(ctx, founder, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SalePaused, res.SaleState)

	_, err = e.svc.Pause(ctx, founder, id)
	assert.ErrorIs(t, err, domain.ErrPauseNotAllowed)

	res, err = e.svc.Resume(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleActive, res.SaleState)

	_, err = e.svc.Resume(ctx, founder, id)
	assert.ErrorIs(t, err, domain.ErrNotPaused)
}

func TestResume_AfterEndRejected(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID
	_, err := e.svc.Pause(ctx, founder, id)
	require.NoError(t, err)

	e.svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = e.svc.Resume(ctx, founder, id)
	assert.ErrorIs(t, err, domain.ErrSaleEnded)
}

func TestTransitions_RequireOwnerOrAdmin(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID

	_, err := e.svc.Pause(ctx, other, id)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.svc.Finalize(ctx, other, id)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.svc.UpdateWhitelist(ctx, other, id, WhitelistUpdate{Enabled: true, Addresses: []string{"0xa"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestFinalize_OwnerGuards(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID

	_, err := e.svc.Finalize(ctx, founder, id)
	assert.ErrorIs(t, err, domain.ErrFinalizeNotAllowed)

	e.contribute(t, id, "0xa", 1000)
	res, err := e.svc.Finalize(ctx, founder, id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalizationQueued, res.Status)

	l, err := e.store.FindLaunch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleActive, l.Sale.State, "state changes only when the event applies")

	e.settle(t)
	l, err = e.store.FindLaunch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleFinalized, l.Sale.State)
	assert.Equal(t, domain.ProjectFinalized, l.Project.Status)

	_, err = e.svc.Finalize(ctx, admin, id)
	assert.ErrorIs(t, err, domain.ErrFinalizeNotAllowed)
	_, err = e.svc.UpdateWhitelist(ctx, admin, id, WhitelistUpdate{})
	assert.ErrorIs(t, err, domain.ErrWhitelistLocked)
}

func TestFinalize_OwnerAfterEnd(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID
	e.svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := e.svc.Finalize(ctx, founder, id)
	assert.NoError(t, err)
}

func TestRefund_OwnerRequiresSoftCapFailure(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID
	e.contribute(t, id, "0xa", 150)

	e.svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := e.svc.Refund(ctx, founder, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRefundNotAllowed)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestRefund_AdminRefundsEveryContribution(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID
	e.contribute(t, id, "0xa", 30)
	e.contribute(t, id, "0xb", 20)

	res, err := e.svc.Refund(ctx, admin, id)
	require.NoError(t, err)
	require.NotNil(t, res.RefundCount)
	assert.Equal(t, 2, *res.RefundCount)
	assert.Equal(t, 2, e.bus.Len())

	e.settle(t)
	l, err := e.store.FindLaunch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleRefunded, l.Sale.State)
	assert.True(t, l.Sale.RaisedAmount.IsZero())

	contributions, err := e.store.Contributions(ctx, id)
	require.NoError(t, err)
	for _, c := range contributions {
		assert.Equal(t, domain.ContributionRefunded, c.Status)
	}
}

func TestRefund_NoContributionsStillReachesRefunded(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID

	res, err := e.svc.Refund(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, 0, *res.RefundCount)
	e.settle(t)

	l, err := e.store.FindLaunch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleRefunded, l.Sale.State)
}

func TestUpdateWhitelist(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.create(t, validInput()).Project.ID

	res, err := e.svc.UpdateWhitelist(ctx, founder, id, WhitelistUpdate{Enabled: true, Addresses: []string{"0xa", "0xb", "0xa", " "}})
	require.NoError(t, err)
	assert.True(t, res.WhitelistEnabled)
	assert.Equal(t, 2, res.WhitelistCount)

	l, err := e.store.FindLaunch(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0xa", "0xb"}, []string(l.Sale.WhitelistAddresses))

	res, err = e.svc.UpdateWhitelist(ctx, founder, id, WhitelistUpdate{Enabled: false, Addresses: []string{"0xa"}})
	require.NoError(t, err)
	assert.False(t, res.WhitelistEnabled)
	assert.Equal(t, 0, res.WhitelistCount)
}
