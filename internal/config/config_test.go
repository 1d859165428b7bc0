package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKernelNodeConfigDefaults(t *testing.T) {
	cfg, err := LoadKernelNodeConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, uint16(50), cfg.ProtocolFeeBps)
}

func TestLoadKernelNodeConfigEnvOverride(t *testing.T) {
	t.Setenv("KERNEL_NODE_LISTEN_ADDR", ":9090")
	t.Setenv("KERNEL_NODE_PROTOCOL_FEE_BPS", "250")

	cfg, err := LoadKernelNodeConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, uint16(250), cfg.ProtocolFeeBps)
}

func TestLoadKeeperdConfigDefaults(t *testing.T) {
	cfg, err := LoadKeeperdConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.KernelNodeURL)
	assert.Equal(t, 20, cfg.MaxActionsPerTick)
}
