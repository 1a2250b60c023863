package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"birthpad-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_FIFO(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, bus.Publish(ctx, domain.SettlementEvent{Type: domain.EventContributionConfirmed, LaunchID: "p_1", ContributionID: id}))
	}
	assert.Equal(t, 3, bus.Len())

	var got []string
	n, err := bus.Drain(ctx, func(_ context.Context, ev domain.SettlementEvent) error {
		got = append(got, ev.ContributionID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"c1", "c2", "c3"}, got)
	assert.Equal(t, 0, bus.Len())
}

func TestMemoryBus_HandlerErrorDoesNotStopDrain(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()
	_ = bus.Publish(ctx, domain.SettlementEvent{Type: "bogus"})
	_ = bus.Publish(ctx, domain.SettlementEvent{Type: domain.EventSaleFinalized})

	calls := 0
	n, err := bus.Drain(ctx, func(_ context.Context, ev domain.SettlementEvent) error {
		calls++
		return errors.New("boom")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, calls)
}

func TestMemoryBus_ConsumeDeliversUntilCancelled(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- bus.Consume(ctx, func(_ context.Context, ev domain.SettlementEvent) error {
			received <- ev.ContributionID
			return nil
		})
	}()

	require.NoError(t, bus.Publish(ctx, domain.SettlementEvent{ContributionID: "a"}))
	require.NoError(t, bus.Publish(ctx, domain.SettlementEvent{ContributionID: "b"}))
	assert.Equal(t, "a", <-received)
	assert.Equal(t, "b", <-received)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestMemoryBus_PublishAfterClose(t *testing.T) {
	bus := NewMemoryBus()
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(context.Background(), domain.SettlementEvent{}), ErrBusClosed)
	assert.NoError(t, bus.Consume(context.Background(), func(context.Context, domain.SettlementEvent) error { return nil }))
}
