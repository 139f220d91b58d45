package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

type fakeConnector struct {
	id      string
	name    string
	account Account
	err     error
	release chan struct{}
	balance *big.Int

	connects    atomic.Int32
	disconnects atomic.Int32
	returned    chan struct{}
}

func newFakeConnector(id string) *fakeConnector {
	return &fakeConnector{
		id:       id,
		name:     id,
		account:  Account{Address: common.HexToAddress(testAddress), ChainID: 1},
		balance:  big.NewInt(1_500_000_000_000_000_000),
		returned: make(chan struct{}, 10),
	}
}

func (f *fakeConnector) ID() string   { return f.id }
func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Connect(ctx context.Context) (Session, error) {
	f.connects.Add(1)
	defer func() { f.returned <- struct{}{} }()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &fakeSession{owner: f, account: f.account}, nil
}

type fakeSession struct {
	owner   *fakeConnector
	account Account
}

func (s *fakeSession) Account() Account { return s.account }

func (s *fakeSession) Close(ctx context.Context) error {
	s.owner.disconnects.Add(1)
	return nil
}

func (s *fakeSession) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return s.owner.balance, nil
}

type codedError struct {
	code int
	msg  string
}

func (e codedError) Error() string  { return e.msg }
func (e codedError) ErrorCode() int { return e.code }

func settle(t *testing.T, a *Adapter) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := a.WaitSettled(ctx)
	require.NoError(t, err)
	return snap
}

func TestConnectSuccess(t *testing.T) {
	a := NewAdapter(WithSupportedChains(1))
	a.Register(newFakeConnector("metaMask"))

	a.Connect("metamask")
	snap := settle(t, a)

	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, common.HexToAddress(testAddress).Hex(), snap.Address)
	assert.Equal(t, int64(1), snap.ChainID)
	assert.Equal(t, "metamask", snap.Kind)
	assert.Nil(t, snap.Err)
	assert.True(t, snap.IsConnected())
}

func TestConnectUserRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", ErrUserRejected},
		{"eip1193 code", codedError{code: 4001, msg: "request failed"}},
		{"message", errors.New("MetaMask Tx Signature: User denied transaction signature.")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter()
			fc := newFakeConnector("injected")
			fc.err = tt.err
			a.Register(fc)

			a.Connect("injected")
			snap := settle(t, a)

			assert.Equal(t, StatusDisconnected, snap.Status)
			require.NotNil(t, snap.Err)
			assert.Equal(t, ErrorUserRejected, snap.Err.Kind)
			assert.Equal(t, rejectedMessage, snap.Err.Message)
			assert.Empty(t, snap.Address)
		})
	}
}

func TestConnectGenericFailure(t *testing.T) {
	a := NewAdapter()
	fc := newFakeConnector("injected")
	fc.err = errors.New("dial tcp: connection refused")
	a.Register(fc)

	a.Connect("injected")
	snap := settle(t, a)

	assert.Equal(t, StatusError, snap.Status)
	require.NotNil(t, snap.Err)
	assert.Equal(t, ErrorGeneric, snap.Err.Kind)
	assert.NotEqual(t, rejectedMessage, snap.Err.Message)
	assert.Contains(t, snap.Err.Message, "connection refused")
}

func TestConnectProviderUnavailable(t *testing.T) {
	a := NewAdapter()
	a.Register(NewExternalConnector("walletConnect", "WalletConnect"))

	a.Connect("walletconnect")
	snap := settle(t, a)

	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, ErrorGeneric, snap.Err.Kind)
	assert.Equal(t, "walletconnect", snap.Kind)
}

func TestConnectUnknownConnector(t *testing.T) {
	a := NewAdapter()

	a.Connect("nope")
	snap := a.Snapshot()

	assert.Equal(t, StatusError, snap.Status)
	assert.Contains(t, snap.Err.Message, "unknown connector")
}

func TestConnectUnsupportedChain(t *testing.T) {
	a := NewAdapter(WithSupportedChains(1, 10))
	fc := newFakeConnector("injected")
	fc.account.ChainID = 56
	a.Register(fc)

	a.Connect("injected")
	snap := settle(t, a)

	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, ErrorUnsupportedChain, snap.Err.Kind)
	assert.Equal(t, []int64{1, 10}, a.SupportedChains())
}

func TestErrorIsNotTerminal(t *testing.T) {
	a := NewAdapter()
	fc := newFakeConnector("injected")
	fc.err = errors.New("boom")
	a.Register(fc)

	a.Connect("injected")
	assert.Equal(t, StatusError, settle(t, a).Status)

	fc.err = nil
	a.Connect("injected")
	assert.Equal(t, StatusConnected, settle(t, a).Status)
}

func TestConnectPassesThroughConnecting(t *testing.T) {
	a := NewAdapter()
	fc := newFakeConnector("injected")
	fc.release = make(chan struct{})
	a.Register(fc)

	a.Connect("injected")
	assert.Equal(t, StatusConnecting, a.Snapshot().Status)

	close(fc.release)
	assert.Equal(t, StatusConnected, settle(t, a).Status)
}

func TestDisconnectDropsInFlightResult(t *testing.T) {
	a := NewAdapter()
	fc := newFakeConnector("injected")
	fc.release = make(chan struct{})
	a.Register(fc)

	a.Connect("injected")
	a.Disconnect()
	close(fc.release)

	<-fc.returned
	assert.Eventually(t, func() bool { return fc.disconnects.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, StatusDisconnected, a.Snapshot().Status)
	assert.Empty(t, a.Snapshot().Address)
}

func TestDisconnectClearsAccount(t *testing.T) {
	a := NewAdapter()
	fc := newFakeConnector("injected")
	a.Register(fc)

	a.Connect("injected")
	settle(t, a)
	a.Disconnect()

	snap := a.Snapshot()
	assert.Equal(t, StatusDisconnected, snap.Status)
	assert.Empty(t, snap.Address)
	assert.Zero(t, snap.ChainID)
	assert.Equal(t, int32(1), fc.disconnects.Load())
}

func TestProviderEvents(t *testing.T) {
	a := NewAdapter(WithSupportedChains(1, 10))
	a.Register(newFakeConnector("injected"))

	a.Connect("injected")
	settle(t, a)

	a.ChainChanged(10)
	assert.Equal(t, int64(10), a.Snapshot().ChainID)

	other := "0x0000000000000000000000000000000000000001"
	a.AccountsChanged([]string{other})
	assert.Equal(t, common.HexToAddress(other).Hex(), a.Snapshot().Address)

	a.ChainChanged(56)
	snap := a.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, ErrorUnsupportedChain, snap.Err.Kind)
	assert.Empty(t, snap.Address)

	a.Connect("injected")
	settle(t, a)
	a.AccountsChanged(nil)
	assert.Equal(t, StatusDisconnected, a.Snapshot().Status)

	a.Connect("injected")
	settle(t, a)
	a.ProviderDisconnected("session expired")
	snap = a.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Contains(t, snap.Err.Message, "session expired")
}

func TestProviderEventsIgnoredWhenDisconnected(t *testing.T) {
	a := NewAdapter()

	a.ChainChanged(5)
	a.AccountsChanged([]string{testAddress})
	a.ProviderDisconnected("gone")

	assert.Equal(t, Snapshot{Status: StatusDisconnected}, a.Snapshot())
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	a := NewAdapter()
	a.Register(newFakeConnector("injected"))

	var mu sync.Mutex
	var seen []Status
	unsubscribe, err := a.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})
	require.NoError(t, err)

	a.Connect("injected")
	settle(t, a)
	a.Disconnect()

	mu.Lock()
	assert.Equal(t, []Status{StatusConnecting, StatusConnected, StatusDisconnected}, seen)
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, subscriberCount(a))

	a.Connect("injected")
	settle(t, a)

	mu.Lock()
	assert.Len(t, seen, 3)
	mu.Unlock()
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	a := NewAdapter()
	a.Register(newFakeConnector("injected"))

	var first, second atomic.Int32
	stopFirst, err := a.Subscribe(func(Snapshot) { first.Add(1) })
	require.NoError(t, err)
	stopSecond, err := a.Subscribe(func(Snapshot) { second.Add(1) })
	require.NoError(t, err)
	defer stopSecond()
	require.Equal(t, 2, subscriberCount(a))

	stopFirst()
	assert.Equal(t, 1, subscriberCount(a))

	a.Connect("injected")
	settle(t, a)

	assert.Eventually(t, func() bool { return second.Load() == 2 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestUnsubscribeFromHandler(t *testing.T) {
	a := NewAdapter()
	a.Register(newFakeConnector("injected"))

	var calls atomic.Int32
	var stop func()
	stop, err := a.Subscribe(func(Snapshot) {
		calls.Add(1)
		stop()
	})
	require.NoError(t, err)

	a.Connect("injected")
	settle(t, a)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, subscriberCount(a))
}

func subscriberCount(a *Adapter) int {
	a.subsMu.RLock()
	defer a.subsMu.RUnlock()
	return len(a.subs)
}

func TestSnapshotIsACopy(t *testing.T) {
	a := NewAdapter()
	fc := newFakeConnector("injected")
	fc.err = errors.New("boom")
	a.Register(fc)

	a.Connect("injected")
	snap := settle(t, a)
	snap.Err.Message = "changed"

	assert.NotEqual(t, "changed", a.Snapshot().Err.Message)
}

func TestBalance(t *testing.T) {
	a := NewAdapter()
	a.Register(newFakeConnector("injected"))

	_, err := a.Balance(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	a.Connect("injected")
	settle(t, a)

	bal, err := a.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", bal.String())
}

func TestConnectorsListed(t *testing.T) {
	a := NewAdapter()
	a.Register(newFakeConnector("metaMask"))
	a.Register(NewExternalConnector("coinbaseWalletSDK", "Coinbase Wallet"))
	a.Register(newFakeConnector("metaMask"))

	infos := a.Connectors()
	require.Len(t, infos, 2)
	assert.Equal(t, KindMetaMask, infos[0].Kind)
	assert.Equal(t, KindCoinbase, infos[1].Kind)
}
