package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOracleParams() OracleParams {
	return OracleParams{ProposerBond: 100, ChallengerBond: 100, ChallengeWindowSeconds: 3600, FinalizationDeadlineSeconds: 86400}
}

func TestConfigLifecycle(t *testing.T) {
	admin := testIdentity(1)
	oracleAdmin := testIdentity(2)
	base := testIdentity(3)
	cfg, err := NewConfig(admin, oracleAdmin, base, testIdentity(4), testIdentity(5), 50, testOracleParams())
	require.NoError(t, err)

	require.NoError(t, cfg.SetPaused(admin, true))
	assert.True(t, cfg.Paused)
	assert.Error(t, cfg.SetPaused(testIdentity(9), false))

	newAdmin := testIdentity(6)
	require.NoError(t, cfg.UpdateAdmin(admin, newAdmin))
	assert.Equal(t, newAdmin, cfg.Admin)
	assert.Error(t, cfg.UpdateAdmin(admin, testIdentity(7))) // old admin no longer authorized
}

func TestAuthorizedCallers(t *testing.T) {
	admin := testIdentity(1)
	cfg, err := NewConfig(admin, testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	caller := testIdentity(9)
	assert.False(t, cfg.IsAuthorizedCaller(caller))
	require.NoError(t, cfg.AddAuthorizedCaller(admin, caller))
	assert.True(t, cfg.IsAuthorizedCaller(caller))
	require.NoError(t, cfg.RemoveAuthorizedCaller(admin, caller))
	assert.False(t, cfg.IsAuthorizedCaller(caller))
}

func TestResolveActingAs(t *testing.T) {
	admin := testIdentity(1)
	cfg, err := NewConfig(admin, testIdentity(2), testIdentity(3), testIdentity(4), testIdentity(5), 0, testOracleParams())
	require.NoError(t, err)

	direct, err := cfg.ResolveActingAs(testIdentity(9), ZeroIdentity)
	require.NoError(t, err)
	assert.Equal(t, testIdentity(9), direct)

	_, err = cfg.ResolveActingAs(testIdentity(9), testIdentity(10))
	assert.Error(t, err) // not an authorized relayer yet

	require.NoError(t, cfg.AddAuthorizedCaller(admin, testIdentity(9)))
	onBehalf, err := cfg.ResolveActingAs(testIdentity(9), testIdentity(10))
	require.NoError(t, err)
	assert.Equal(t, testIdentity(10), onBehalf)
}
