package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMarket(t *testing.T) *Market {
	t.Helper()
	m, err := NewMarket([]byte("market-1"), testIdentity(1), testIdentity(2), testIdentity(3), 2, 100, 1_000, 100_000)
	require.NoError(t, err)
	return m
}

func TestNewMarketValidation(t *testing.T) {
	_, err := NewMarket([]byte("m"), testIdentity(1), testIdentity(2), testIdentity(3), 1, 0, 0, 1_000_000)
	assert.Error(t, err) // too few outcomes

	_, err = NewMarket([]byte("m"), testIdentity(1), testIdentity(2), testIdentity(3), 17, 0, 0, 1_000_000)
	assert.Error(t, err) // too many outcomes

	_, err = NewMarket([]byte("m"), testIdentity(1), testIdentity(2), testIdentity(3), 2, 0, 1_000, 1_010)
	assert.Error(t, err) // resolution time too close to creation
}

func TestMarketLifecycle(t *testing.T) {
	m := testMarket(t)
	admin := testIdentity(9)
	cfg, err := NewConfig(admin, testIdentity(8), testIdentity(2), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	assert.Error(t, m.Pause(admin, cfg)) // not active yet
	assert.Error(t, m.Activate(m.Creator, cfg)) // creator is not admin
	require.NoError(t, m.Activate(admin, cfg))
	assert.Equal(t, MarketActive, m.Status)
	assert.Error(t, m.Activate(admin, cfg)) // already active

	require.NoError(t, m.Pause(admin, cfg))
	assert.Equal(t, MarketPaused, m.Status)
	require.NoError(t, m.Resume(admin, cfg))
	assert.Equal(t, MarketActive, m.Status)

	assert.Error(t, m.Activate(testIdentity(7), cfg)) // wrong caller
}

func TestMarketResolutionFlow(t *testing.T) {
	m := testMarket(t)
	admin := testIdentity(9)
	cfg, err := NewConfig(admin, testIdentity(8), testIdentity(2), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)
	require.NoError(t, m.Activate(admin, cfg))

	assert.Error(t, m.BeginResolving(500, 3600)) // before resolution time
	require.NoError(t, m.BeginResolving(100_000, 3600))
	assert.Equal(t, MarketResolving, m.Status)
	assert.Equal(t, int64(103_600), m.FinalizationDeadline)

	require.NoError(t, m.Resolve(MarketResult{WinningOutcome: 1}))
	assert.Equal(t, MarketResolved, m.Status)
	require.NotNil(t, m.Result)
	assert.Equal(t, uint8(1), m.Result.WinningOutcome)

	assert.Error(t, m.Resolve(MarketResult{WinningOutcome: 0})) // already resolved
}

func TestMarketCancelAndFlag(t *testing.T) {
	m := testMarket(t)
	cfg, err := NewConfig(testIdentity(9), testIdentity(8), testIdentity(2), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	require.NoError(t, m.Flag(testIdentity(8), cfg))
	assert.Equal(t, MarketUnderReview, m.Status)

	require.NoError(t, m.Cancel(testIdentity(9), cfg))
	assert.Equal(t, MarketCancelled, m.Status)
	assert.Error(t, m.Cancel(testIdentity(9), cfg)) // already terminal
}
