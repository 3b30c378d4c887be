package session

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"xdc-dashboard/rpc"
)

const (
	accountA = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	accountB = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"

	checksumA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	checksumB = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

type fakeProvider struct {
	mu        sync.Mutex
	accounts  []string
	chainID   uint64
	chainErr  error
	closed    int
	listener  rpc.Listener
	watchDone chan struct{}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Accounts(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts, nil
}

func (f *fakeProvider) ChainID(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID, f.chainErr
}

func (f *fakeProvider) Balance(context.Context, string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// Subscribe records the listener and parks a goroutine until ctx is cancelled
func (f *fakeProvider) Subscribe(ctx context.Context, l rpc.Listener) {
	f.mu.Lock()
	f.listener = l
	f.watchDone = make(chan struct{})
	done := f.watchDone
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		close(done)
	}()
}

func (f *fakeProvider) events() rpc.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listener
}

func (f *fakeProvider) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// plainProvider has neither a close nor a subscribe capability
type plainProvider struct{}

func (plainProvider) Name() string                                      { return "plain" }
func (plainProvider) Accounts(context.Context) ([]string, error)        { return []string{accountA}, nil }
func (plainProvider) ChainID(context.Context) (uint64, error)           { return 50, nil }
func (plainProvider) Balance(context.Context, string) (*big.Int, error) { return big.NewInt(0), nil }

type fakeModal struct {
	provider    Provider
	err         error
	clearCalls  int
	clearErr    error
	connectHits int
}

func (m *fakeModal) Connect(context.Context) (Provider, error) {
	m.connectHits++
	if m.err != nil {
		return nil, m.err
	}
	return m.provider, nil
}

func (m *fakeModal) ClearCachedProvider() error {
	m.clearCalls++
	return m.clearErr
}

func newConnected(t *testing.T, opts ...Option) (*Context, *fakeProvider, *fakeModal) {
	t.Helper()
	p := &fakeProvider{accounts: []string{accountA, accountB}, chainID: 51}
	m := &fakeModal{provider: p}
	c := New(m, opts...)
	require.NoError(t, c.Connect(context.Background()))
	return c, p, m
}

func drain(c *Context) bool {
	select {
	case <-c.Changes():
		return true
	default:
		return false
	}
}

func TestConnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, p, _ := newConnected(t)

	s := c.Snapshot()
	assert.Equal(t, checksumA, s.Address)
	assert.Equal(t, uint64(51), s.ChainID)
	assert.Same(t, p, s.Provider)
	assert.True(t, s.Connected())
	assert.True(t, drain(c))
	require.NotNil(t, p.events())

	require.NoError(t, c.Disconnect())
}

func TestConnectCancelled(t *testing.T) {
	c := New(&fakeModal{})

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, State{}, c.Snapshot())
	assert.False(t, drain(c))
	assert.Equal(t, uint64(0), c.Generation())
}

func TestConnectFailures(t *testing.T) {
	t.Run("modal error", func(t *testing.T) {
		boom := errors.New("dial failed")
		c := New(&fakeModal{err: boom})

		err := c.Connect(context.Background())
		require.ErrorIs(t, err, boom)
		assert.Equal(t, State{}, c.Snapshot())
	})

	t.Run("no accounts", func(t *testing.T) {
		p := &fakeProvider{chainID: 51}
		c := New(&fakeModal{provider: p})

		err := c.Connect(context.Background())
		require.ErrorIs(t, err, ErrNoAccounts)
		assert.Equal(t, State{}, c.Snapshot())
		assert.Equal(t, 1, p.closeCount())
		assert.False(t, drain(c))
	})

	t.Run("invalid account", func(t *testing.T) {
		p := &fakeProvider{accounts: []string{"nope"}, chainID: 51}
		c := New(&fakeModal{provider: p})

		require.Error(t, c.Connect(context.Background()))
		assert.Equal(t, State{}, c.Snapshot())
	})

	t.Run("chain id error", func(t *testing.T) {
		boom := errors.New("chain id unavailable")
		p := &fakeProvider{accounts: []string{accountA}, chainErr: boom}
		c := New(&fakeModal{provider: p})

		require.ErrorIs(t, c.Connect(context.Background()), boom)
		assert.Equal(t, State{}, c.Snapshot())
		assert.Equal(t, 1, p.closeCount())
	})
}

func TestConnectWithoutCapabilities(t *testing.T) {
	c := New(&fakeModal{provider: plainProvider{}})

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Snapshot().Connected())

	require.NoError(t, c.Disconnect())
	assert.Equal(t, State{}, c.Snapshot())
}

func TestReconnectReleasesPreviousProvider(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, first, m := newConnected(t)
	second := &fakeProvider{accounts: []string{accountB}, chainID: 50}
	m.provider = second

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, 1, first.closeCount())
	assert.Equal(t, checksumB, c.Snapshot().Address)

	// events from the replaced provider are ignored
	first.events().OnAccountsChanged([]string{accountA})
	assert.Equal(t, checksumB, c.Snapshot().Address)

	require.NoError(t, c.Disconnect())
}

func TestDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, p, m := newConnected(t)
	drain(c)

	require.NoError(t, c.Disconnect())
	s := c.Snapshot()
	assert.Equal(t, "", s.Address)
	assert.Equal(t, uint64(0), s.ChainID)
	assert.Nil(t, s.Provider)
	assert.False(t, s.Connected())
	assert.Equal(t, 1, p.closeCount())
	assert.Equal(t, 1, m.clearCalls)
	assert.True(t, drain(c))
	<-p.watchDone

	t.Run("is idempotent", func(t *testing.T) {
		require.NoError(t, c.Disconnect())
		assert.Equal(t, State{}, c.Snapshot())
		assert.False(t, drain(c))
		assert.Equal(t, 1, p.closeCount())
	})

	t.Run("reports cache errors but still resets", func(t *testing.T) {
		c2, _, m2 := newConnected(t)
		m2.clearErr = errors.New("disk full")

		require.Error(t, c2.Disconnect())
		assert.Equal(t, State{}, c2.Snapshot())
	})
}

// freshModal hands out a new provider on every Connect
type freshModal struct {
	mu        sync.Mutex
	providers []*fakeProvider
}

func (m *freshModal) Connect(context.Context) (Provider, error) {
	p := &fakeProvider{accounts: []string{accountA}, chainID: 51}
	m.mu.Lock()
	m.providers = append(m.providers, p)
	m.mu.Unlock()
	return p, nil
}

func (m *freshModal) ClearCachedProvider() error { return nil }

func TestConcurrentConnectDisconnectReleasesProviders(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &freshModal{}
	c := New(m)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Connect(context.Background()))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Disconnect())
		}()
	}
	wg.Wait()

	current := c.Snapshot().Provider
	for _, p := range m.providers {
		if Provider(p) == current {
			assert.Zero(t, p.closeCount())
			continue
		}
		assert.Equal(t, 1, p.closeCount())
	}

	require.NoError(t, c.Disconnect())
	for _, p := range m.providers {
		assert.Equal(t, 1, p.closeCount())
		<-p.watchDone
	}
}

func TestAccountsChanged(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, p, _ := newConnected(t)
	drain(c)

	p.events().OnAccountsChanged([]string{accountB})
	s := c.Snapshot()
	assert.Equal(t, checksumB, s.Address)
	assert.Equal(t, uint64(51), s.ChainID)
	assert.True(t, drain(c))

	// same account again is not a change
	p.events().OnAccountsChanged([]string{accountB})
	assert.False(t, drain(c))

	// an invalid first entry is ignored
	p.events().OnAccountsChanged([]string{"garbage"})
	assert.Equal(t, checksumB, c.Snapshot().Address)

	require.NoError(t, c.Disconnect())
}

func TestAccountsChangedEmptyDisconnects(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, p, m := newConnected(t)
	drain(c)

	p.events().OnAccountsChanged(nil)

	assert.Equal(t, State{}, c.Snapshot())
	assert.True(t, drain(c))
	assert.Equal(t, 1, p.closeCount())
	assert.Equal(t, 0, m.clearCalls)
	<-p.watchDone
}

func TestNetworkChanged(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, p, _ := newConnected(t)
	drain(c)

	p.mu.Lock()
	p.chainID = 50
	p.mu.Unlock()
	p.events().OnNetworkChanged()

	assert.Equal(t, uint64(50), c.Snapshot().ChainID)
	assert.True(t, drain(c))

	p.mu.Lock()
	p.chainErr = errors.New("flaky")
	p.mu.Unlock()
	p.events().OnNetworkChanged()
	assert.Equal(t, uint64(50), c.Snapshot().ChainID)

	require.NoError(t, c.Disconnect())
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("reset", func(t *testing.T) {
		c, p, _ := newConnected(t)
		drain(c)

		p.events().OnClose()
		assert.Equal(t, State{}, c.Snapshot())
		assert.True(t, drain(c))
		<-p.watchDone
	})

	t.Run("legacy noop keeps state", func(t *testing.T) {
		c, p, _ := newConnected(t, WithCloseBehavior(CloseLegacyNoop))
		before := c.Snapshot()
		drain(c)

		p.events().OnClose()
		assert.Equal(t, before, c.Snapshot())
		assert.False(t, drain(c))

		require.NoError(t, c.Disconnect())
	})
}

func TestStaleEventsIgnoredAfterDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, p, _ := newConnected(t)
	l := p.events()
	require.NoError(t, c.Disconnect())
	drain(c)

	l.OnAccountsChanged([]string{accountB})
	l.OnNetworkChanged()
	l.OnClose()

	assert.Equal(t, State{}, c.Snapshot())
	assert.False(t, drain(c))
}

func TestCloseBehaviorString(t *testing.T) {
	assert.Equal(t, "reset", CloseReset.String())
	assert.Equal(t, "noop", CloseLegacyNoop.String())
}
