package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimWinnings(t *testing.T) {
	ctx := context.Background()
	m := resolvingMarket(t)
	vault := newFakeVault()
	owner := testIdentity(50)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	require.NoError(t, pos.Credit(0, 4))
	require.NoError(t, pos.Credit(1, 9))

	require.NoError(t, m.Resolve(MarketResult{WinningOutcome: 1}))

	amount, err := ClaimWinnings(ctx, m, pos, vault, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), amount)
	assert.True(t, pos.Claimed)

	_, err = ClaimWinnings(ctx, m, pos, vault, owner)
	assert.Error(t, err) // already claimed
}

func TestClaimWinningsWrongOwner(t *testing.T) {
	ctx := context.Background()
	m := resolvingMarket(t)
	vault := newFakeVault()
	owner := testIdentity(50)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	require.NoError(t, m.Resolve(MarketResult{WinningOutcome: 0}))

	_, err := ClaimWinnings(ctx, m, pos, vault, testIdentity(99))
	assert.Error(t, err)
}

func TestRefundCancelledMarket(t *testing.T) {
	ctx := context.Background()
	m := testMarket(t)
	vault := newFakeVault()
	cfg, err := NewConfig(testIdentity(1), testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	owner := testIdentity(50)
	pos := NewPosition(owner, m.MarketID, m.OutcomeCount)
	require.NoError(t, pos.Credit(0, 10))
	require.NoError(t, pos.Credit(1, 7)) // partial-fill residue on outcome 0

	require.NoError(t, m.Cancel(testIdentity(1), cfg))
	amount, err := RefundCancelledMarket(ctx, m, pos, vault, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), amount) // floor across outcomes
}
