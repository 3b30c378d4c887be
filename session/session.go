// Package session holds the wallet connection state shared by every view:
// the connected address, the chain identifier and the live provider handle.
// Views receive a *Context explicitly and only read from it; all writes go
// through Connect, Disconnect and the provider event handlers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"xdc-dashboard/helpers"
	"xdc-dashboard/rpc"
)

// ErrNoAccounts is returned when a provider reports an empty account list
var ErrNoAccounts = errors.New("provider returned no accounts")

const eventTimeout = 10 * time.Second

// Provider is a live wallet provider handle
type Provider interface {
	Name() string
	Accounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (uint64, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// closer is implemented by providers with a close capability
type closer interface {
	Close() error
}

// subscriber is implemented by providers that emit account, network and close events
type subscriber interface {
	Subscribe(ctx context.Context, l rpc.Listener)
}

// Modal is the wallet discovery layer. Connect returns a nil Provider and a
// nil error when the user cancels the selection.
type Modal interface {
	Connect(ctx context.Context) (Provider, error)
	ClearCachedProvider() error
}

// CloseBehavior selects what happens when the provider reports it was closed
type CloseBehavior int

const (
	// CloseReset clears the connection state
	CloseReset CloseBehavior = iota
	// CloseLegacyNoop leaves the state untouched after a close event
	CloseLegacyNoop
)

func (b CloseBehavior) String() string {
	if b == CloseLegacyNoop {
		return "noop"
	}
	return "reset"
}

// State is a snapshot of the connection state
type State struct {
	Address  string   // checksummed, "" when disconnected
	ChainID  uint64   // 0 when disconnected
	Provider Provider // nil when disconnected
}

// Connected reports whether both address and chain id are set
func (s State) Connected() bool {
	return s.Address != "" && s.ChainID != 0
}

// Context owns the connection state
type Context struct {
	mu          sync.RWMutex
	state       State
	gen         uint64
	cancelWatch context.CancelFunc

	modal         Modal
	closeBehavior CloseBehavior
	logger        *log.Logger
	changes       chan struct{}
}

// Option configures a Context
type Option func(*Context)

// WithCloseBehavior sets the reaction to provider close events
func WithCloseBehavior(b CloseBehavior) Option {
	return func(c *Context) { c.closeBehavior = b }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty (disconnected) Context
func New(modal Modal, opts ...Option) *Context {
	c := &Context{
		modal:   modal,
		logger:  log.New(io.Discard),
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state
func (c *Context) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Generation increases every time the connection is established or torn down
func (c *Context) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Changes signals state changes. Signals are coalesced: a receiver should
// read Snapshot after every signal.
func (c *Context) Changes() <-chan struct{} {
	return c.changes
}

func (c *Context) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Connect asks the discovery layer for a provider and, on success, commits
// address, chain id and provider in one step. A cancelled selection is a
// no-op. On any failure the state is left unchanged.
func (c *Context) Connect(ctx context.Context) error {
	p, err := c.modal.Connect(ctx)
	if err != nil {
		c.logger.Error("wallet connect failed", "err", err)
		return fmt.Errorf("connect: %w", err)
	}
	if p == nil {
		c.logger.Info("wallet selection cancelled")
		return nil
	}

	address, chainID, err := c.readAccount(ctx, p)
	if err != nil {
		c.logger.Error("wallet connect failed", "provider", p.Name(), "err", err)
		c.closeProvider(p)
		return fmt.Errorf("connect %s: %w", p.Name(), err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	prev := c.state.Provider
	prevCancel := c.cancelWatch
	c.gen++
	gen := c.gen
	c.state = State{Address: address, ChainID: chainID, Provider: p}
	c.cancelWatch = cancel
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	if prev != nil && prev != p {
		c.closeProvider(prev)
	}

	c.subscribe(watchCtx, p, gen)
	c.notify()
	c.logger.Info("wallet connected", "provider", p.Name(), "address", address, "chain", chainID)
	return nil
}

func (c *Context) readAccount(ctx context.Context, p Provider) (string, uint64, error) {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		return "", 0, err
	}
	if len(accounts) == 0 {
		return "", 0, ErrNoAccounts
	}
	address, err := helpers.ToChecksumAddress(accounts[0])
	if err != nil {
		return "", 0, err
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return "", 0, err
	}
	return address, chainID, nil
}

// Disconnect closes the provider if it can be closed, clears the cached
// provider selection and resets the state. Calling it while disconnected
// leaves the state empty and is not an error.
func (c *Context) Disconnect() error {
	p, cancel, changed, _ := c.detach(0)
	if cancel != nil {
		cancel()
	}

	var errs []error
	if cl, ok := p.(closer); ok {
		if err := cl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close provider: %w", err))
		}
	}
	if err := c.modal.ClearCachedProvider(); err != nil {
		errs = append(errs, fmt.Errorf("clear cached provider: %w", err))
	}
	if changed {
		c.notify()
		c.logger.Info("wallet disconnected")
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn("disconnect", "err", err)
	}
	return err
}

// detach clears the state and bumps the generation, handing the provider
// and its watcher cancel func to the caller in the same critical section.
// When onlyGen is non-zero it only applies while that generation is current.
func (c *Context) detach(onlyGen uint64) (p Provider, cancel context.CancelFunc, changed, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if onlyGen != 0 && c.gen != onlyGen {
		return nil, nil, false, false
	}
	p = c.state.Provider
	cancel = c.cancelWatch
	changed = c.state.Address != "" || c.state.ChainID != 0 || p != nil
	c.state = State{}
	c.cancelWatch = nil
	c.gen++
	return p, cancel, changed, true
}

// reset detaches generation gen, cancels its watcher and closes its
// provider. It reports whether anything changed.
func (c *Context) reset(gen uint64) bool {
	p, cancel, changed, ok := c.detach(gen)
	if !ok {
		return false
	}
	if cancel != nil {
		cancel()
	}
	if p != nil {
		c.closeProvider(p)
	}
	if changed {
		c.notify()
	}
	return changed
}

func (c *Context) closeProvider(p Provider) {
	if cl, ok := p.(closer); ok {
		if err := cl.Close(); err != nil {
			c.logger.Warn("close provider", "provider", p.Name(), "err", err)
		}
	}
}

func (c *Context) subscribe(ctx context.Context, p Provider, gen uint64) {
	s, ok := p.(subscriber)
	if !ok {
		c.logger.Debug("provider does not emit events", "provider", p.Name())
		return
	}
	s.Subscribe(ctx, listener{c: c, gen: gen})
}

// current returns the provider of generation gen, or nil if gen is stale
func (c *Context) current(gen uint64) Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gen != gen {
		return nil
	}
	return c.state.Provider
}

func (c *Context) onAccountsChanged(gen uint64, accounts []string) {
	if c.current(gen) == nil {
		return
	}
	if len(accounts) == 0 {
		c.logger.Warn("provider reported no accounts, disconnecting")
		c.reset(gen)
		return
	}

	address, err := helpers.ToChecksumAddress(accounts[0])
	if err != nil {
		c.logger.Error("accounts changed", "err", err)
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	changed := c.state.Address != address
	c.state.Address = address
	c.mu.Unlock()

	if changed {
		c.logger.Info("account changed", "address", address)
		c.notify()
	}
}

func (c *Context) onNetworkChanged(gen uint64) {
	p := c.current(gen)
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	chainID, err := p.ChainID(ctx)
	if err != nil {
		c.logger.Error("network changed", "err", err)
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	changed := c.state.ChainID != chainID
	c.state.ChainID = chainID
	c.mu.Unlock()

	if changed {
		c.logger.Info("network changed", "chain", chainID)
		c.notify()
	}
}

func (c *Context) onClose(gen uint64) {
	if c.current(gen) == nil {
		return
	}
	if c.closeBehavior == CloseLegacyNoop {
		c.logger.Warn("provider closed, keeping state")
		return
	}
	if c.reset(gen) {
		c.logger.Info("provider closed")
	}
}

// listener routes provider events to the Context that subscribed them
type listener struct {
	c   *Context
	gen uint64
}

func (l listener) OnAccountsChanged(accounts []string) { l.c.onAccountsChanged(l.gen, accounts) }
func (l listener) OnNetworkChanged()                   { l.c.onNetworkChanged(l.gen) }
func (l listener) OnClose()                            { l.c.onClose(l.gen) }
