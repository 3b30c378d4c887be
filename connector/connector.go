// Package connector is the wallet discovery layer: it resolves which
// configured provider to use (an explicit choice from the selection modal
// or the cached one from a previous session), dials it, and remembers the
// choice when provider caching is enabled.
package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"xdc-dashboard/config"
	"xdc-dashboard/rpc"
	"xdc-dashboard/session"
)

// ErrUnknownProvider is returned when a chosen provider is not configured
var ErrUnknownProvider = errors.New("unknown provider")

const dialTimeout = 8 * time.Second

// DialFunc opens a connection to a configured provider
type DialFunc func(ctx context.Context, p config.Provider) (session.Provider, error)

// PersistFunc stores the cached provider name ("" clears it)
type PersistFunc func(cached string) error

// Connector implements session.Modal over the configured providers
type Connector struct {
	mu        sync.Mutex
	providers []config.Provider
	cache     bool
	cached    string
	choice    string

	dial    DialFunc
	persist PersistFunc
	logger  *log.Logger
}

// Option configures a Connector
type Option func(*Connector)

// WithDialer replaces the default RPC dialer
func WithDialer(d DialFunc) Option {
	return func(c *Connector) { c.dial = d }
}

// WithPersist sets the function used to store the cached provider name
func WithPersist(p PersistFunc) Option {
	return func(c *Connector) { c.persist = p }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Connector) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Connector from the configuration
func New(cfg config.Config, opts ...Option) *Connector {
	c := &Connector{
		providers: slices.Clone(cfg.Providers),
		cache:     cfg.CacheProvider,
		cached:    cfg.CachedProvider,
		dial:      RPCDialer(cfg),
		persist:   func(string) error { return nil },
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RPCDialer dials providers with the go-ethereum RPC client using the
// configured rate limit and poll interval
func RPCDialer(cfg config.Config) DialFunc {
	return func(ctx context.Context, p config.Provider) (session.Provider, error) {
		ctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()

		result := rpc.ConnectContext(ctx, rpc.Options{
			Name:         p.Name,
			URL:          p.URL,
			Accounts:     p.Accounts,
			RateLimit:    cfg.RequestRate(),
			PollInterval: cfg.PollInterval(),
		})
		if result.Error != nil {
			return nil, result.Error
		}
		return result.Provider, nil
	}
}

// Providers returns the configured providers
func (c *Connector) Providers() []config.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.providers)
}

func (c *Connector) find(name string) (config.Provider, bool) {
	for _, p := range c.providers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return config.Provider{}, false
}

// Choose records the provider picked in the selection modal
func (c *Connector) Choose(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	c.choice = p.Name
	return nil
}

// Cancel discards a pending choice
func (c *Connector) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.choice = ""
}

// Cached returns the cached provider when caching is enabled
func (c *Connector) Cached() (config.Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cache || c.cached == "" {
		return config.Provider{}, false
	}
	return c.find(c.cached)
}

// Connect dials the chosen (or cached) provider. With nothing chosen it
// returns a nil provider and a nil error, which callers treat as a cancel.
func (c *Connector) Connect(ctx context.Context) (session.Provider, error) {
	c.mu.Lock()
	name := c.choice
	c.choice = ""
	if name == "" && c.cache {
		name = c.cached
	}
	entry, ok := c.find(name)
	c.mu.Unlock()

	if name == "" {
		return nil, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	c.logger.Debug("dialing provider", "name", entry.Name, "url", entry.URL)
	p, err := c.dial(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", entry.Name, err)
	}

	if c.cache {
		c.mu.Lock()
		changed := c.cached != entry.Name
		c.cached = entry.Name
		c.mu.Unlock()
		if changed {
			if err := c.persist(entry.Name); err != nil {
				c.logger.Warn("persist cached provider", "err", err)
			}
		}
	}
	return p, nil
}

// ClearCachedProvider forgets the cached provider selection
func (c *Connector) ClearCachedProvider() error {
	c.mu.Lock()
	c.cached = ""
	c.mu.Unlock()
	return c.persist("")
}
