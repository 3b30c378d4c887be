package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

// fileMu serialises read-modify-write cycles on the config file
var fileMu sync.Mutex

// Config represents the application configuration
type Config struct {
	Providers      []Provider `json:"providers"`
	CacheProvider  bool       `json:"cache_provider"`
	CachedProvider string     `json:"cached_provider,omitempty"`
	CloseNoop      bool       `json:"close_noop,omitempty"` // keep state after a provider close event
	PollSeconds    int        `json:"poll_seconds,omitempty"`
	RateLimit      float64    `json:"rate_limit,omitempty"` // requests per second per provider
	Logger         bool       `json:"logger"`
}

// Provider represents a wallet provider (an RPC endpoint plus optional watch-only accounts)
type Provider struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Symbol   string   `json:"symbol,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
}

const (
	defaultPollSeconds = 4
	defaultRateLimit   = 5
	defaultSymbol      = "XDC"
)

// PollInterval returns how often provider events are polled
func (c Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// RequestRate returns the per-provider request rate, falling back to the default
func (c Config) RequestRate() float64 {
	if c.RateLimit <= 0 {
		return defaultRateLimit
	}
	return c.RateLimit
}

// Find returns the provider with the given name (case-insensitive)
func (c Config) Find(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Provider{}, false
}

// CurrencySymbol returns the native currency symbol for the provider
func (p Provider) CurrencySymbol() string {
	if p.Symbol == "" {
		return defaultSymbol
	}
	return p.Symbol
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Update applies fn to the config stored at path and writes it back.
// A missing file starts from DefaultConfig; a file that cannot be read or
// parsed is left untouched and the error is returned.
func Update(path string, fn func(*Config)) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read config: %w", err)
	default:
		cfg = Config{}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	fn(&cfg)
	return Save(path, cfg)
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Providers: []Provider{
			{
				Name:   "XDC Mainnet",
				URL:    "https://rpc.xinfin.network",
				Symbol: "XDC",
			},
			{
				Name:   "Apothem Testnet",
				URL:    "https://rpc.apothem.network",
				Symbol: "TXDC",
			},
		},
		CacheProvider: true,
		PollSeconds:   defaultPollSeconds,
		RateLimit:     defaultRateLimit,
		Logger:        false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		_ = Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, return default without overwriting the user's file
		return DefaultConfig()
	}

	return cfg
}

// WithEnvProvider prepends an ad-hoc provider for url when it is not already configured
func (c Config) WithEnvProvider(name, url string) Config {
	url = strings.TrimSpace(url)
	if url == "" {
		return c
	}
	for _, p := range c.Providers {
		if p.URL == url {
			return c
		}
	}
	c.Providers = append([]Provider{{Name: name, URL: url}}, c.Providers...)
	return c
}
