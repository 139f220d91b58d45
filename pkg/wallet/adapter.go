// Package wallet tracks the connection between the client and a user's wallet.
//
// The Adapter owns a small state machine:
//
//	disconnected -> connecting -> connected | error
//	connected    -> disconnected (Disconnect, empty account list)
//	connected    -> error        (provider disconnect, unsupported chain)
//	error        -> connecting   (a new Connect)
//
// A user rejection ends a connect attempt in disconnected with a rejection error
// attached, so the UI can show the reason without offering a retry state.
package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/ethereum/go-ethereum/common"

	"dex-swap/pkg/logging"
)

var log = logging.New("wallet")

const snapshotTopic = "wallet:snapshot"

// DefaultConnectTimeout bounds a single connect attempt
const DefaultConnectTimeout = 30 * time.Second

// Status is the connection state
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Snapshot is a read-only copy of the adapter state
type Snapshot struct {
	Status    Status        `json:"status"`
	Address   string        `json:"address,omitempty"`
	ChainID   int64         `json:"chain_id,omitempty"`
	Connector string        `json:"connector,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Err       *ConnectError `json:"error,omitempty"`
}

// IsConnected reports whether the snapshot has a usable account
func (s Snapshot) IsConnected() bool {
	return s.Status == StatusConnected && s.Address != ""
}

// ConnectorInfo describes a registered connector
type ConnectorInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"-"`
}

// Option configures an Adapter
type Option func(*Adapter)

// WithSupportedChains restricts the chains a connection may use. An empty list
// allows every chain.
func WithSupportedChains(ids ...int64) Option {
	return func(a *Adapter) {
		for _, id := range ids {
			a.supported[id] = true
		}
	}
}

// WithConnectTimeout overrides DefaultConnectTimeout
func WithConnectTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter exposes connect/disconnect commands and a snapshot of the result.
// Subscribers must not call Connect or Disconnect synchronously from a handler.
type Adapter struct {
	mu         sync.RWMutex
	connectors map[string]Connector
	order      []string
	supported  map[int64]bool
	timeout    time.Duration

	snap    Snapshot
	session Session
	attempt uint64
	settled chan struct{}

	pubMu   sync.Mutex
	bus     evbus.Bus
	busOnce sync.Once
	busErr  error
	nextID  atomic.Uint64
	subsMu  sync.RWMutex
	subs    map[uint64]func(Snapshot)
}

// NewAdapter creates a disconnected adapter
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		connectors: make(map[string]Connector),
		supported:  make(map[int64]bool),
		timeout:    DefaultConnectTimeout,
		snap:       Snapshot{Status: StatusDisconnected},
		bus:        evbus.New(),
		subs:       make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register adds a connector. A connector with the same id is replaced.
func (a *Adapter) Register(c Connector) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := strings.ToLower(c.ID())
	if _, exists := a.connectors[id]; !exists {
		a.order = append(a.order, id)
	}
	a.connectors[id] = c
}

// Connectors lists registered connectors in registration order
func (a *Adapter) Connectors() []ConnectorInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]ConnectorInfo, 0, len(a.order))
	for _, id := range a.order {
		c := a.connectors[id]
		out = append(out, ConnectorInfo{ID: c.ID(), Name: c.Name(), Kind: Classify(c.ID(), c.Name())})
	}
	return out
}

// SupportedChains returns the allowed chain ids in ascending order
func (a *Adapter) SupportedChains() []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]int64, 0, len(a.supported))
	for id := range a.supported {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns the current state
func (a *Adapter) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *Adapter) snapshotLocked() Snapshot {
	s := a.snap
	if s.Err != nil {
		e := *s.Err
		s.Err = &e
	}
	return s
}

// Subscribe registers fn for every state transition. The returned func removes
// it and may be called more than once, including from inside fn.
func (a *Adapter) Subscribe(fn func(Snapshot)) (func(), error) {
	a.busOnce.Do(func() {
		a.busErr = a.bus.Subscribe(snapshotTopic, a.dispatch)
	})
	if a.busErr != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", a.busErr)
	}

	id := a.nextID.Add(1)
	a.subsMu.Lock()
	a.subs[id] = fn
	a.subsMu.Unlock()
	log.Debug().Uint64("subscription", id).Msg("Snapshot subscriber added")

	return func() {
		a.subsMu.Lock()
		defer a.subsMu.Unlock()
		if _, ok := a.subs[id]; ok {
			delete(a.subs, id)
			log.Debug().Uint64("subscription", id).Msg("Snapshot subscriber removed")
		}
	}, nil
}

// dispatch is the single bus handler. It fans a snapshot out to subscribers in
// subscription order.
func (a *Adapter) dispatch(s Snapshot) {
	a.subsMu.RLock()
	ids := make([]uint64, 0, len(a.subs))
	for id := range a.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, a.subs[id])
	}
	a.subsMu.RUnlock()

	for _, fn := range handlers {
		fn(s)
	}
}

// transition applies update under the lock and publishes the resulting snapshot.
// Publishing holds pubMu so subscribers observe transitions in order.
func (a *Adapter) transition(update func()) {
	a.mu.Lock()
	update()
	if a.snap.Status == StatusConnected && a.snap.Address == "" {
		a.snap = Snapshot{Status: StatusError, Err: &ConnectError{Kind: ErrorGeneric, Message: genericMessage + ": no account returned"}}
	}
	snap := a.snapshotLocked()
	a.pubMu.Lock()
	a.mu.Unlock()

	log.Debug().Str("status", string(snap.Status)).Str("address", snap.Address).Int64("chain_id", snap.ChainID).Msg("Wallet state changed")
	a.bus.Publish(snapshotTopic, snap)
	a.pubMu.Unlock()
}

// settleLocked wakes WaitSettled callers for the current attempt
func (a *Adapter) settleLocked() {
	if a.settled != nil {
		close(a.settled)
		a.settled = nil
	}
}

// Connect starts a connection attempt with the connector id and returns at once.
// The outcome is observable through Snapshot, Subscribe or WaitSettled.
func (a *Adapter) Connect(connectorID string) {
	a.mu.RLock()
	c, ok := a.connectors[strings.ToLower(connectorID)]
	a.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownConnector, connectorID)
		var previous Session
		a.transition(func() {
			a.attempt++
			a.settleLocked()
			previous = a.releaseLocked()
			a.snap = Snapshot{Status: StatusError, Err: classifyError(err)}
		})
		a.closeSession(previous, connectorID)
		return
	}

	var attempt uint64
	var previous Session
	a.transition(func() {
		a.attempt++
		attempt = a.attempt
		a.settleLocked()
		a.settled = make(chan struct{})
		previous = a.releaseLocked()
		a.snap = Snapshot{Status: StatusConnecting, Connector: c.ID(), Kind: Classify(c.ID(), c.Name()).String()}
	})

	go a.runConnect(attempt, c, previous)
}

func (a *Adapter) runConnect(attempt uint64, c Connector, previous Session) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	a.closeSession(previous, c.ID())

	session, err := c.Connect(ctx)
	if err == nil && session == nil {
		err = fmt.Errorf("%s returned no session: %w", c.ID(), ErrProviderUnavailable)
	}
	var account Account
	if err == nil {
		account = session.Account()
		if !a.chainAllowed(account.ChainID) {
			a.closeSession(session, c.ID())
			session = nil
			err = fmt.Errorf("%w: chain id %d", ErrUnsupportedChain, account.ChainID)
		}
	}

	stale := false
	a.transition(func() {
		if attempt != a.attempt {
			stale = true
			return
		}
		defer a.settleLocked()

		kind := Classify(c.ID(), c.Name()).String()
		if err != nil {
			connErr := classifyError(err)
			status := StatusError
			if connErr.Kind == ErrorUserRejected {
				status = StatusDisconnected
			}
			a.snap = Snapshot{Status: status, Connector: c.ID(), Kind: kind, Err: connErr}
			return
		}

		a.session = session
		a.snap = Snapshot{
			Status:    StatusConnected,
			Address:   account.Address.Hex(),
			ChainID:   account.ChainID,
			Connector: c.ID(),
			Kind:      kind,
		}
	})

	if stale {
		log.Debug().Str("connector", c.ID()).Msg("Dropping superseded connect result")
		a.closeSession(session, c.ID())
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("connector", c.ID()).Msg("Wallet connection failed")
	}
}

// releaseLocked detaches the current session so the caller can close it after
// the lock is released
func (a *Adapter) releaseLocked() Session {
	session := a.session
	a.session = nil
	return session
}

func (a *Adapter) closeSession(session Session, connectorID string) {
	if session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := session.Close(ctx); err != nil {
		log.Warn().Err(err).Str("connector", connectorID).Msg("Failed to close wallet session")
	}
}

func (a *Adapter) chainAllowed(chainID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.supported) == 0 || a.supported[chainID]
}

// WaitSettled blocks until no connect attempt is in flight and returns the
// resulting snapshot
func (a *Adapter) WaitSettled(ctx context.Context) (Snapshot, error) {
	for {
		a.mu.RLock()
		ch := a.settled
		snap := a.snapshotLocked()
		a.mu.RUnlock()

		if ch == nil {
			return snap, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return a.Snapshot(), ctx.Err()
		}
	}
}

// Disconnect drops the connection and any attempt in flight
func (a *Adapter) Disconnect() {
	var session Session
	var connectorID string
	a.transition(func() {
		a.attempt++
		a.settleLocked()
		connectorID = a.snap.Connector
		session = a.releaseLocked()
		a.snap = Snapshot{Status: StatusDisconnected}
	})
	a.closeSession(session, connectorID)
}

// ChainChanged handles a provider chain switch
func (a *Adapter) ChainChanged(chainID int64) {
	allowed := a.chainAllowed(chainID)
	var released Session
	var connectorID string
	a.transition(func() {
		if a.snap.Status != StatusConnected {
			return
		}
		if !allowed {
			connectorID = a.snap.Connector
			released = a.releaseLocked()
			a.snap = Snapshot{
				Status:    StatusError,
				Connector: a.snap.Connector,
				Kind:      a.snap.Kind,
				Err: &ConnectError{
					Kind:    ErrorUnsupportedChain,
					Message: fmt.Sprintf("%s: chain id %d", ErrUnsupportedChain, chainID),
				},
			}
			return
		}
		a.snap.ChainID = chainID
	})
	a.closeSession(released, connectorID)
}

// AccountsChanged handles a provider account switch. An empty list means the
// wallet revoked access.
func (a *Adapter) AccountsChanged(addresses []string) {
	var released Session
	var connectorID string
	a.transition(func() {
		if a.snap.Status != StatusConnected {
			return
		}
		if len(addresses) == 0 {
			connectorID = a.snap.Connector
			released = a.releaseLocked()
			a.snap = Snapshot{Status: StatusDisconnected}
			return
		}
		if common.IsHexAddress(addresses[0]) {
			a.snap.Address = common.HexToAddress(addresses[0]).Hex()
		}
	})
	a.closeSession(released, connectorID)
}

// ProviderDisconnected handles the provider dropping the session
func (a *Adapter) ProviderDisconnected(reason string) {
	var released Session
	var connectorID string
	a.transition(func() {
		if a.snap.Status != StatusConnected {
			return
		}
		connectorID = a.snap.Connector
		released = a.releaseLocked()
		a.snap = Snapshot{
			Status:    StatusError,
			Connector: a.snap.Connector,
			Kind:      a.snap.Kind,
			Err:       &ConnectError{Kind: ErrorGeneric, Message: "Wallet disconnected: " + reason},
		}
	})
	a.closeSession(released, connectorID)
}

// Balance returns the native balance of the connected account in wei
func (a *Adapter) Balance(ctx context.Context) (*big.Int, error) {
	a.mu.RLock()
	snap := a.snap
	session := a.session
	a.mu.RUnlock()

	if !snap.IsConnected() || session == nil {
		return nil, ErrNotConnected
	}

	reader, ok := session.(BalanceReader)
	if !ok {
		return nil, fmt.Errorf("connector %s cannot read balances: %w", snap.Connector, ErrProviderUnavailable)
	}
	return reader.BalanceOf(ctx, common.HexToAddress(snap.Address))
}

// TokenBalance returns the connected account's balance of an ERC-20 token in
// the token's base units
func (a *Adapter) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	a.mu.RLock()
	snap := a.snap
	session := a.session
	a.mu.RUnlock()

	if !snap.IsConnected() || session == nil {
		return nil, ErrNotConnected
	}

	reader, ok := session.(TokenBalanceReader)
	if !ok {
		return nil, fmt.Errorf("connector %s cannot read token balances: %w", snap.Connector, ErrProviderUnavailable)
	}
	return reader.TokenBalanceOf(ctx, token, common.HexToAddress(snap.Address))
}

// SignMessage signs msg with the connected account, if its connector holds a key
func (a *Adapter) SignMessage(msg []byte) ([]byte, error) {
	a.mu.RLock()
	snap := a.snap
	session := a.session
	a.mu.RUnlock()

	if !snap.IsConnected() || session == nil {
		return nil, ErrNotConnected
	}

	signer, ok := session.(Signer)
	if !ok {
		return nil, fmt.Errorf("connector %s cannot sign: %w", snap.Connector, ErrProviderUnavailable)
	}
	return signer.SignText(msg)
}
