package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval  = 4 * time.Second
	defaultFailThreshold = 3
)

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New("provider closed")

// Listener receives provider notifications. Methods are called from the
// watcher goroutine and must not block for long.
type Listener interface {
	OnAccountsChanged(accounts []string)
	OnNetworkChanged()
	OnClose()
}

// Options configures a provider
type Options struct {
	Name     string
	URL      string
	Accounts []string // watch-only accounts reported instead of eth_accounts

	RateLimit     float64 // requests per second, <= 0 means unlimited
	PollInterval  time.Duration
	FailThreshold int // consecutive poll failures before the provider is reported closed
}

// Provider is a live connection to a JSON-RPC node
type Provider struct {
	rpc *gethrpc.Client
	eth *ethclient.Client

	name     string
	accounts []string

	limiter       *rate.Limiter
	pollInterval  time.Duration
	failThreshold int

	closeOnce sync.Once
	closed    chan struct{}
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Provider *Provider
	Error    error
}

// ConnectContext dials opts.URL; the scheme selects HTTP, WebSocket or IPC transport
func ConnectContext(ctx context.Context, opts Options) ConnectResult {
	client, err := gethrpc.DialContext(ctx, opts.URL)
	if err != nil {
		return ConnectResult{Error: fmt.Errorf("dial %s: %w", opts.URL, err)}
	}

	return ConnectResult{Provider: NewProvider(client, opts)}
}

// NewProvider wraps an already dialled client
func NewProvider(client *gethrpc.Client, opts Options) *Provider {
	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = max(1, int(opts.RateLimit)*2)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	threshold := opts.FailThreshold
	if threshold <= 0 {
		threshold = defaultFailThreshold
	}

	return &Provider{
		rpc:           client,
		eth:           ethclient.NewClient(client),
		name:          opts.Name,
		accounts:      slices.Clone(opts.Accounts),
		limiter:       rate.NewLimiter(limit, burst),
		pollInterval:  poll,
		failThreshold: threshold,
		closed:        make(chan struct{}),
	}
}

// Name returns the configured provider name
func (p *Provider) Name() string { return p.name }

func (p *Provider) wait(ctx context.Context) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	return p.limiter.Wait(ctx)
}

// Accounts returns the configured watch-only accounts, or the node's eth_accounts
func (p *Provider) Accounts(ctx context.Context) ([]string, error) {
	if len(p.accounts) > 0 {
		return slices.Clone(p.accounts), nil
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	var result []common.Address
	if err := p.rpc.CallContext(ctx, &result, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	accounts := make([]string, len(result))
	for i, a := range result {
		accounts[i] = a.Hex()
	}
	return accounts, nil
}

// ChainID returns the active chain identifier
func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	if err := p.wait(ctx); err != nil {
		return 0, err
	}
	id, err := p.eth.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("eth_chainId: %s out of range", id)
	}
	return id.Uint64(), nil
}

// Balance returns the latest balance of address in the smallest unit
func (p *Provider) Balance(ctx context.Context, address string) (*big.Int, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	wei, err := p.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	return wei, nil
}

// Close shuts the underlying client down. Subscribed listeners receive OnClose.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.rpc.Close()
	})
	return nil
}

// Subscribe starts watching the provider for account and network changes
// until ctx is cancelled. The node is polled every PollInterval.
func (p *Provider) Subscribe(ctx context.Context, l Listener) {
	go p.watch(ctx, l)
}

func (p *Provider) watch(ctx context.Context, l Listener) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	lastAccounts, _ := p.Accounts(ctx)
	lastChain, _ := p.ChainID(ctx)
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closed:
			l.OnClose()
			return
		case <-ticker.C:
		}

		accounts, aerr := p.Accounts(ctx)
		chain, cerr := p.ChainID(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(aerr, ErrClosed) || errors.Is(cerr, ErrClosed) {
			l.OnClose()
			return
		}
		if aerr != nil || cerr != nil {
			failures++
			if failures >= p.failThreshold {
				l.OnClose()
				return
			}
			continue
		}
		failures = 0

		if !slices.Equal(accounts, lastAccounts) {
			lastAccounts = accounts
			l.OnAccountsChanged(slices.Clone(accounts))
		}
		if chain != lastChain {
			lastChain = chain
			l.OnNetworkChanged()
		}
	}
}
