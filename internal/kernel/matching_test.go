package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchMint(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	vault := newFakeVault()
	fund := &fakeFund{}

	yesOwner, noOwner := testIdentity(10), testIdentity(11)
	yesPos := NewPosition(yesOwner, m.MarketID, m.OutcomeCount)
	noPos := NewPosition(noOwner, m.MarketID, m.OutcomeCount)

	yesOrder, err := PlaceOrder(ctx, m, yesPos, vault, []byte("y"), yesOwner, 0, Buy, 480_000, 10, 0, 0)
	require.NoError(t, err)
	noOrder, err := PlaceOrder(ctx, m, noPos, vault, []byte("n"), noOwner, 1, Buy, 480_000, 10, 0, 0)
	require.NoError(t, err)

	require.NoError(t, MatchMint(ctx, m, yesOrder, noOrder, yesPos, noPos, fund, 10))
	assert.Equal(t, OrderFilled, yesOrder.Status)
	assert.Equal(t, OrderFilled, noOrder.Status)
	assert.Equal(t, uint64(10), yesPos.Owned[0])
	assert.Equal(t, uint64(10), noPos.Owned[1])
	assert.Equal(t, uint64(2), fund.received) // 10 - floor(10*0.48)*2 = 10 - 8 = 2
}

func TestMatchMintRejectsOversumPrices(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	vault := newFakeVault()
	fund := &fakeFund{}
	a, b := testIdentity(10), testIdentity(11)
	posA := NewPosition(a, m.MarketID, m.OutcomeCount)
	posB := NewPosition(b, m.MarketID, m.OutcomeCount)
	orderA, err := PlaceOrder(ctx, m, posA, vault, []byte("a"), a, 0, Buy, 600_000, 10, 0, 0)
	require.NoError(t, err)
	orderB, err := PlaceOrder(ctx, m, posB, vault, []byte("b"), b, 1, Buy, 600_000, 10, 0, 0)
	require.NoError(t, err)

	assert.Error(t, MatchMint(ctx, m, orderA, orderB, posA, posB, fund, 10))
}

func TestMatchBurn(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	vault := newFakeVault()
	a, b := testIdentity(10), testIdentity(11)
	posA := NewPosition(a, m.MarketID, m.OutcomeCount)
	posB := NewPosition(b, m.MarketID, m.OutcomeCount)
	require.NoError(t, posA.Credit(0, 10))
	require.NoError(t, posB.Credit(1, 10))

	orderA, err := PlaceOrder(ctx, m, posA, vault, []byte("a"), a, 0, Sell, 520_000, 10, 0, 0)
	require.NoError(t, err)
	orderB, err := PlaceOrder(ctx, m, posB, vault, []byte("b"), b, 1, Sell, 520_000, 10, 0, 0)
	require.NoError(t, err)

	require.NoError(t, MatchBurn(ctx, m, orderA, orderB, posA, posB, vault, 10))
	assert.Equal(t, uint64(0), posA.Owned[0])
	assert.Equal(t, uint64(0), posB.Owned[1])
	assert.Equal(t, OrderFilled, orderA.Status)
	assert.Equal(t, OrderFilled, orderB.Status)
}

func TestExecuteTrade(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	vault := newFakeVault()
	fund := &fakeFund{}
	cfg, err := NewConfig(testIdentity(1), testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 1_000, testOracleParams())
	require.NoError(t, err)

	buyer, seller := testIdentity(20), testIdentity(21)
	buyerPos := NewPosition(buyer, m.MarketID, m.OutcomeCount)
	sellerPos := NewPosition(seller, m.MarketID, m.OutcomeCount)
	require.NoError(t, sellerPos.Credit(0, 100))

	buyOrder, err := PlaceOrder(ctx, m, buyerPos, vault, []byte("buy"), buyer, 0, Buy, 600_000, 100, 0, 0)
	require.NoError(t, err)
	sellOrder, err := PlaceOrder(ctx, m, sellerPos, vault, []byte("sell"), seller, 0, Sell, 500_000, 100, 0, 0)
	require.NoError(t, err)

	require.NoError(t, ExecuteTrade(ctx, m, buyOrder, sellOrder, buyerPos, sellerPos, vault, fund, cfg, 100))
	assert.Equal(t, uint64(100), buyerPos.Owned[0])
	assert.Equal(t, uint64(0), sellerPos.Owned[0])
	// buyer locked 60 at placement, traded at the maker's 0.50 price, so 10 of
	// improvement unlocks back, leaving the 50 that paid for the fill.
	assert.Equal(t, uint64(50), vault.locked[vaultKey(m.MarketID, buyer)])
	assert.Equal(t, uint64(5), fund.received)
}

func TestExecuteTradeRejectsSelfTrade(t *testing.T) {
	ctx := context.Background()
	m := activeMarket(t)
	vault := newFakeVault()
	fund := &fakeFund{}
	cfg, err := NewConfig(testIdentity(1), testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	owner := testIdentity(20)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	require.NoError(t, pos.Credit(0, 10))

	buyOrder, err := PlaceOrder(ctx, m, pos, vault, []byte("buy"), owner, 0, Buy, 500_000, 10, 0, 0)
	require.NoError(t, err)
	sellOrder, err := PlaceOrder(ctx, m, pos, vault, []byte("sell"), owner, 0, Sell, 500_000, 10, 0, 0)
	require.NoError(t, err)

	assert.Error(t, ExecuteTrade(ctx, m, buyOrder, sellOrder, pos, pos, vault, fund, cfg, 10))
}
