package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyConnector plays the role of an injected browser provider: it holds a local
// private key and talks to a JSON-RPC node for chain id and balances. Its sessions
// can sign.
type KeyConnector struct {
	id     string
	name   string
	rpcURL string
	dial   Dialer

	privateKey *ecdsa.PrivateKey
	keyErr     error
}

// NewKeyConnector creates a connector from a hex encoded private key
func NewKeyConnector(id, name, rpcURL, hexKey string, dial Dialer) *KeyConnector {
	c := &KeyConnector{id: id, name: name, rpcURL: rpcURL, dial: dial}
	if c.dial == nil {
		c.dial = DialEthClient
	}

	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		c.keyErr = fmt.Errorf("no private key configured: %w", ErrProviderUnavailable)
		return c
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		c.keyErr = fmt.Errorf("invalid private key: %w", err)
		return c
	}
	c.privateKey = key
	return c
}

// NewKeystoreConnector creates a connector from the first account of a go-ethereum
// keystore directory. A wrong password is reported as a user rejection, the same
// way a wallet reports a dismissed unlock prompt.
func NewKeystoreConnector(id, name, rpcURL, keystoreDir, password string, dial Dialer) *KeyConnector {
	c := &KeyConnector{id: id, name: name, rpcURL: rpcURL, dial: dial}
	if c.dial == nil {
		c.dial = DialEthClient
	}

	if keystoreDir == "" {
		c.keyErr = fmt.Errorf("no keystore configured: %w", ErrProviderUnavailable)
		return c
	}

	ks := keystore.NewKeyStore(keystoreDir, keystore.LightScryptN, keystore.LightScryptP)
	accs := ks.Accounts()
	if len(accs) == 0 {
		c.keyErr = fmt.Errorf("keystore %s has no accounts: %w", keystoreDir, ErrProviderUnavailable)
		return c
	}

	key, err := decryptAccount(ks, accs[0], password)
	if err != nil {
		c.keyErr = err
		return c
	}
	c.privateKey = key
	return c
}

func decryptAccount(ks *keystore.KeyStore, acc accounts.Account, password string) (*ecdsa.PrivateKey, error) {
	blob, err := ks.Export(acc, password, password)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("keystore unlock declined: %w", ErrUserRejected)
		}
		return nil, fmt.Errorf("failed to unlock keystore account: %w", err)
	}

	key, err := keystore.DecryptKey(blob, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore account: %w", err)
	}
	return key.PrivateKey, nil
}

// ID returns the connector id
func (c *KeyConnector) ID() string { return c.id }

// Name returns the display name
func (c *KeyConnector) Name() string { return c.name }

// Address returns the account address, if a key is loaded
func (c *KeyConnector) Address() (common.Address, bool) {
	if c.privateKey == nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(c.privateKey.PublicKey), true
}

// Connect dials the RPC node and reads the chain id. Every call dials its own
// client, owned by the returned session.
func (c *KeyConnector) Connect(ctx context.Context) (Session, error) {
	if c.keyErr != nil {
		return nil, c.keyErr
	}
	if c.rpcURL == "" {
		return nil, fmt.Errorf("no RPC endpoint configured: %w", ErrProviderUnavailable)
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

	address, _ := c.Address()
	return newChainSession(Account{Address: address, ChainID: chainID.Int64()}, c.privateKey, client), nil
}
