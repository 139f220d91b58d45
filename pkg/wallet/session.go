package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// chainSession is the session of the key and watch connectors. It owns the RPC
// client dialed for one connect attempt; the key is nil for read-only sessions
// and the client is nil when no RPC endpoint is configured.
type chainSession struct {
	account Account
	key     *ecdsa.PrivateKey

	mu     sync.Mutex
	client ChainClient
	closed bool
}

func newChainSession(account Account, key *ecdsa.PrivateKey, client ChainClient) *chainSession {
	return &chainSession{account: account, key: key, client: client}
}

// Account returns the connected account
func (s *chainSession) Account() Account { return s.account }

// Close releases the RPC client. Closing twice is a no-op.
func (s *chainSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	s.closed = true
	return nil
}

func (s *chainSession) chainClient() (ChainClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrNotConnected
	}
	if s.client == nil {
		return nil, fmt.Errorf("no RPC endpoint configured: %w", ErrProviderUnavailable)
	}
	return s.client, nil
}

// BalanceOf returns the latest native balance in wei
func (s *chainSession) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	client, err := s.chainClient()
	if err != nil {
		return nil, err
	}

	balance, err := client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// TokenBalanceOf returns the latest ERC-20 balance in the token's base units
func (s *chainSession) TokenBalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	client, err := s.chainClient()
	if err != nil {
		return nil, err
	}
	return erc20BalanceOf(ctx, client, token, account)
}

// SignText signs msg with the EIP-191 personal message prefix
func (s *chainSession) SignText(msg []byte) ([]byte, error) {
	if s.key == nil {
		return nil, fmt.Errorf("read-only account cannot sign: %w", ErrProviderUnavailable)
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrNotConnected
	}

	sig, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}
