package ensvotes_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/0xsequence/urkit/ensvotes"
	"github.com/0xsequence/urkit/ethens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := ensvotes.DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "votes.eth", cfg.Basename)
	assert.Equal(t, []string{"premm.eth", "nick.eth"}, cfg.Voters)
	assert.Equal(t, "ens.votes", cfg.TextKey)
	assert.Equal(t, ethens.RegistryAddress.Hex(), cfg.Registry)
	assert.Equal(t, ethens.DefaultGateways, cfg.Gateways)

	// the defaults own their gateways
	cfg.Gateways[0] = "http://localhost"
	assert.NotEqual(t, "http://localhost", ensvotes.DefaultConfig().Gateways[0])
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(ensvotes.EnvForkURL, "")

	path := filepath.Join(t.TempDir(), "urkit.toml")
	err := os.WriteFile(path, []byte(`
fork_url = "http://localhost:9545"
fork_block = 21000000
basename = "test.eth"
voters = ["alice.eth"]
gateways = []
`), 0644)
	require.NoError(t, err)

	cfg, err := ensvotes.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://localhost:9545", cfg.ForkURL)
	assert.Equal(t, uint64(21000000), cfg.ForkBlock)
	assert.Equal(t, "test.eth", cfg.Basename)
	assert.Equal(t, []string{"alice.eth"}, cfg.Voters)
	assert.Empty(t, cfg.Gateways)

	// untouched keys keep their defaults
	assert.Equal(t, "ens.votes", cfg.TextKey)
	assert.Equal(t, uint64(1), cfg.HookChainID)

	_, err = ensvotes.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv(ensvotes.EnvForkURL, "http://fork.local:8545")

	cfg, err := ensvotes.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://fork.local:8545", cfg.ForkURL)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ensvotes.Config)
	}{
		{"no endpoint", func(c *ensvotes.Config) { c.ForkURL, c.RPCURL = "", "" }},
		{"bad fork url", func(c *ensvotes.Config) { c.ForkURL = "not a url" }},
		{"bad registry", func(c *ensvotes.Config) { c.Registry = "0x1234" }},
		{"no voters", func(c *ensvotes.Config) { c.Voters = nil }},
		{"empty voter", func(c *ensvotes.Config) { c.Voters = []string{""} }},
		{"bad gateway", func(c *ensvotes.Config) { c.Gateways = []string{"::"} }},
		{"same chains", func(c *ensvotes.Config) { c.WrongChainID = c.HookChainID }},
		{"bad port", func(c *ensvotes.Config) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ensvotes.DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// attaching needs no fork
	cfg := ensvotes.DefaultConfig()
	cfg.ForkURL = ""
	cfg.RPCURL = "http://localhost:8545"
	assert.NoError(t, cfg.Validate())
}
