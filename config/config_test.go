package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate(t *testing.T) {
	t.Parallel()

	t.Run("missing file writes defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cfg.json")

		cfg := LoadOrCreate(path)
		assert.Equal(t, DefaultConfig(), cfg)

		_, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, Load(path))
	})

	t.Run("invalid json falls back to defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		assert.Equal(t, DefaultConfig(), LoadOrCreate(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{not json", string(data))
	})
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cfg.json")

	cfg := Config{
		Providers: []Provider{{
			Name:     "Local",
			URL:      "http://127.0.0.1:8545",
			Accounts: []string{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		}},
		CacheProvider:  true,
		CachedProvider: "Local",
		CloseNoop:      true,
		Logger:         true,
	}
	require.NoError(t, Save(path, cfg))
	assert.Equal(t, cfg, Load(path))
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Config{}, Load(filepath.Join(t.TempDir(), "nope.json")))
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	assert.Equal(t, 4*time.Second, cfg.PollInterval())
	assert.InDelta(t, 5.0, cfg.RequestRate(), 0)

	cfg.PollSeconds = 10
	cfg.RateLimit = 1.5
	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.InDelta(t, 1.5, cfg.RequestRate(), 0)

	assert.Equal(t, "XDC", Provider{}.CurrencySymbol())
	assert.Equal(t, "ETH", Provider{Symbol: "ETH"}.CurrencySymbol())
}

func TestFind(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	p, ok := cfg.Find("apothem testnet")
	require.True(t, ok)
	assert.Equal(t, "https://rpc.apothem.network", p.URL)

	_, ok = cfg.Find("missing")
	assert.False(t, ok)
}

func TestWithEnvProvider(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	assert.Equal(t, cfg, cfg.WithEnvProvider("Env", "  "))

	withEnv := cfg.WithEnvProvider("Env", "http://localhost:8545")
	require.Len(t, withEnv.Providers, len(cfg.Providers)+1)
	assert.Equal(t, Provider{Name: "Env", URL: "http://localhost:8545"}, withEnv.Providers[0])

	again := withEnv.WithEnvProvider("Env", "http://localhost:8545")
	assert.Len(t, again.Providers, len(withEnv.Providers))
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, Save(path, DefaultConfig()))

	require.NoError(t, Update(path, func(c *Config) { c.CachedProvider = "XDC Mainnet" }))
	require.NoError(t, Update(path, func(c *Config) { c.Logger = true }))

	got := Load(path)
	assert.Equal(t, "XDC Mainnet", got.CachedProvider)
	assert.True(t, got.Logger)
	assert.Equal(t, DefaultConfig().Providers, got.Providers)
}

func TestUpdateLeavesInvalidFileAlone(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cfg.json")
	broken := `{"providers":[{"name":"Mine","url":"http://x"}],`
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o600))

	err := Update(path, func(c *Config) { c.CachedProvider = "XDC Mainnet" })
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))
}

func TestUpdateMissingFileStartsFromDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cfg.json")

	require.NoError(t, Update(path, func(c *Config) { c.Logger = true }))

	want := DefaultConfig()
	want.Logger = true
	assert.Equal(t, want, Load(path))
}
