package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvingMarket(t *testing.T) *Market {
	t.Helper()
	m := activeMarket(t)
	require.NoError(t, m.BeginResolving(100_000, testOracleParams().FinalizationDeadlineSeconds))
	return m
}

func TestProposeAndFinalize(t *testing.T) {
	ctx := context.Background()
	m := resolvingMarket(t)
	vault := newFakeVault()
	cfg, err := NewConfig(testIdentity(1), testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	proposer := testIdentity(30)
	proposal, err := ProposeResult(ctx, m, cfg, vault, proposer, 1, false, 100_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), vault.locked[vaultKey(m.MarketID, proposer)])

	assert.Error(t, FinalizeResult(ctx, m, proposal, vault, 100_100)) // window still open
	require.NoError(t, FinalizeResult(ctx, m, proposal, vault, 104_000))
	assert.Equal(t, MarketResolved, m.Status)
	assert.Equal(t, uint8(1), m.Result.WinningOutcome)
	assert.Equal(t, uint64(0), vault.locked[vaultKey(m.MarketID, proposer)]) // bond returned
}

func TestChallengeAndDispute(t *testing.T) {
	ctx := context.Background()
	m := resolvingMarket(t)
	vault := newFakeVault()
	cfg, err := NewConfig(testIdentity(1), testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	proposer, challenger := testIdentity(30), testIdentity(31)
	proposal, err := ProposeResult(ctx, m, cfg, vault, proposer, 1, false, 100_000)
	require.NoError(t, err)

	require.NoError(t, ChallengeResult(ctx, proposal, cfg, vault, challenger, 100_500))
	assert.Equal(t, ProposalChallenged, proposal.Status)
	assert.Error(t, FinalizeResult(ctx, m, proposal, vault, 104_000)) // no longer finalizable directly

	require.NoError(t, ResolveDispute(ctx, m, proposal, cfg, vault, testIdentity(2), 0, false, false, 105_000))
	assert.Equal(t, MarketResolved, m.Status)
	assert.Equal(t, uint8(0), m.Result.WinningOutcome)
}

func TestChallengeAfterWindowCloses(t *testing.T) {
	ctx := context.Background()
	m := resolvingMarket(t)
	vault := newFakeVault()
	cfg, err := NewConfig(testIdentity(1), testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	proposer, challenger := testIdentity(30), testIdentity(31)
	proposal, err := ProposeResult(ctx, m, cfg, vault, proposer, 1, false, 100_000)
	require.NoError(t, err)

	assert.Error(t, ChallengeResult(ctx, proposal, cfg, vault, challenger, 104_000))
}
