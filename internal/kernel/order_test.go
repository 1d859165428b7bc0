package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeMarket(t *testing.T) *Market {
	t.Helper()
	m := testMarket(t)
	cfg, err := NewConfig(testIdentity(1), testIdentity(8), testIdentity(2), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)
	require.NoError(t, m.Activate(testIdentity(1), cfg))
	return m
}

func TestPlaceOrderBuyLocksCost(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	owner := testIdentity(9)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	vault := newFakeVault()

	o, err := PlaceOrder(ctx, m, pos, vault, []byte("o1"), owner, 0, Buy, 500_000, 10, 1_000, 0)
	require.NoError(t, err)
	assert.Equal(t, OrderOpen, o.Status)
	assert.Equal(t, uint64(5), vault.locked[vaultKey(m.MarketID, owner)])
}

func TestPlaceOrderSellReservesTokens(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	owner := testIdentity(9)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	require.NoError(t, pos.Credit(0, 10))
	vault := newFakeVault()

	_, err := PlaceOrder(ctx, m, pos, vault, []byte("o1"), owner, 0, Sell, 500_000, 10, 1_000, 0)
	require.NoError(t, err)
	avail, err := pos.AvailableBalance(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), avail)

	_, err = PlaceOrder(ctx, m, pos, vault, []byte("o2"), owner, 0, Sell, 500_000, 1, 1_000, 0)
	assert.Error(t, err) // nothing left to reserve
}

func TestPlaceOrderRejectsInvalidPrice(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	owner := testIdentity(9)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	vault := newFakeVault()

	_, err := PlaceOrder(ctx, m, pos, vault, []byte("o1"), owner, 0, Buy, MaxPrice+1, 10, 1_000, 0)
	assert.Error(t, err)
}

func TestCancelOrderReleasesCollateral(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	owner := testIdentity(9)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	vault := newFakeVault()

	o, err := PlaceOrder(ctx, m, pos, vault, []byte("o1"), owner, 0, Buy, 500_000, 10, 1_000, 0)
	require.NoError(t, err)

	require.NoError(t, CancelOrder(ctx, o, pos, vault, owner, 2_000))
	assert.Equal(t, OrderCancelled, o.Status)
	assert.Equal(t, uint64(0), vault.locked[vaultKey(m.MarketID, owner)])

	assert.Error(t, CancelOrder(ctx, o, pos, vault, owner, 2_000)) // already cancelled
}

func TestExpireOrder(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	owner := testIdentity(9)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	vault := newFakeVault()

	o, err := PlaceOrder(ctx, m, pos, vault, []byte("o1"), owner, 0, Buy, 500_000, 10, 1_000, 2_000)
	require.NoError(t, err)

	assert.Error(t, ExpireOrder(ctx, o, pos, vault, 1_500)) // not yet expired
	require.NoError(t, ExpireOrder(ctx, o, pos, vault, 2_500))
	assert.Equal(t, OrderExpired, o.Status)
}
