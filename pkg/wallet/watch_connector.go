package wallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// WatchConnector links a read-only address. With an RPC endpoint it also reports
// the chain id and balances; without one it assumes mainnet.
type WatchConnector struct {
	address string
	rpcURL  string
	dial    Dialer
}

// NewWatchConnector creates a read-only connector for address
func NewWatchConnector(address, rpcURL string, dial Dialer) *WatchConnector {
	if dial == nil {
		dial = DialEthClient
	}
	return &WatchConnector{address: address, rpcURL: rpcURL, dial: dial}
}

// ID returns the connector id
func (c *WatchConnector) ID() string { return "watch" }

// Name returns the display name
func (c *WatchConnector) Name() string { return "Watch Address" }

// Connect validates the address and optionally reads the chain id
func (c *WatchConnector) Connect(ctx context.Context) (Session, error) {
	if c.address == "" {
		return nil, fmt.Errorf("no watch address configured: %w", ErrProviderUnavailable)
	}
	if !common.IsHexAddress(c.address) {
		return nil, fmt.Errorf("invalid address: %s", c.address)
	}

	account := Account{Address: common.HexToAddress(c.address), ChainID: 1}
	if c.rpcURL == "" {
		return newChainSession(account, nil, nil), nil
	}

	client, err := c.dial(ctx, c.rpcURL)
	if err != nil {
		return nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	account.ChainID = chainID.Int64()
	return newChainSession(account, nil, client), nil
}
