package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Account is what a successful connection yields
type Account struct {
	Address common.Address
	ChainID int64
}

// Session is one live connection produced by a connector. Each Connect call
// yields its own Session; the adapter keeps the current one and closes the rest.
type Session interface {
	Account() Account
	Close(ctx context.Context) error
}

// Connector is one way of linking a wallet. Implementations own all protocol work;
// the adapter only sees the resulting session or error.
type Connector interface {
	ID() string
	Name() string
	Connect(ctx context.Context) (Session, error)
}

// BalanceReader is implemented by sessions that can read native balances
type BalanceReader interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

// Signer is implemented by sessions that hold the account key
type Signer interface {
	SignText(msg []byte) ([]byte, error)
}

// ChainClient is the subset of ethclient.Client the connectors use
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dialer opens a ChainClient for an RPC endpoint
type Dialer func(ctx context.Context, rpcURL string) (ChainClient, error)

// DialEthClient is the default Dialer backed by go-ethereum's ethclient
func DialEthClient(ctx context.Context, rpcURL string) (ChainClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return client, nil
}

// ExternalConnector stands for a wallet whose protocol runs outside this process,
// such as a WalletConnect relay session or the Coinbase Wallet SDK. Connecting
// always reports ErrProviderUnavailable.
type ExternalConnector struct {
	id   string
	name string
}

// NewExternalConnector creates a placeholder connector
func NewExternalConnector(id, name string) *ExternalConnector {
	return &ExternalConnector{id: id, name: name}
}

// ID returns the connector id
func (c *ExternalConnector) ID() string { return c.id }

// Name returns the display name
func (c *ExternalConnector) Name() string { return c.name }

// Connect always fails; the provider is not reachable from a terminal
func (c *ExternalConnector) Connect(ctx context.Context) (Session, error) {
	return nil, fmt.Errorf("%s: %w", c.name, ErrProviderUnavailable)
}
