package cmd

import (
	"context"
	"fmt"
	"time"

	"dex-swap/config"
	"dex-swap/pkg/history"
	"dex-swap/pkg/market"
	"dex-swap/pkg/quote"
	"dex-swap/pkg/settings"
	"dex-swap/pkg/swap"
	"dex-swap/pkg/wallet"
)

const tokenListTimeout = 10 * time.Second

// loadConfig returns the process configuration, loading it once
func loadConfig() *config.Config {
	return config.Get()
}

// loadRegistry returns the token table, overlaid with the configured token list
func loadRegistry(cfg *config.Config) *market.Registry {
	if cfg.TokenListURL == "" {
		return market.DefaultRegistry()
	}
	ctx, cancel := context.WithTimeout(context.Background(), tokenListTimeout)
	defer cancel()

	if len(cfg.Wallet.SupportedChains) == 1 {
		return market.NewTokenListLoader(cfg.Wallet.SupportedChains[0]).LoadRegistry(ctx, cfg.TokenListURL)
	}
	return market.LoadTokenList(ctx, cfg.TokenListURL)
}

func newCalculator(cfg *config.Config) *quote.Calculator {
	return quote.NewCalculator(loadRegistry(cfg))
}

func newHistoryClient(cfg *config.Config) *history.Client {
	clientCfg := history.DefaultClientConfig()
	clientCfg.MaxRetries = cfg.HistoryRetries
	return history.NewClient(cfg.ExplorerURL, cfg.ExplorerAPIKey, clientCfg)
}

func newSettingsStore(cfg *config.Config) *settings.Store {
	return settings.NewStore(cfg.SettingsPath())
}

func newActivityStorage(cfg *config.Config) *swap.Storage {
	storage, err := swap.NewStorage(cfg.ActivityPath())
	exitOnError(err)
	return storage
}

// newAdapter registers every connector the configuration can back. Injected
// wallets sign with the configured key or keystore; WalletConnect and Coinbase
// need a browser and are listed but unavailable here.
func newAdapter(cfg *config.Config) *wallet.Adapter {
	adapter := wallet.NewAdapter(
		wallet.WithSupportedChains(cfg.Wallet.SupportedChains...),
		wallet.WithConnectTimeout(walletConnectTimeout),
	)
	wc := cfg.Wallet

	switch {
	case wc.PrivateKey != "":
		adapter.Register(wallet.NewKeyConnector("injected", "Browser Wallet", wc.RPCURL, wc.PrivateKey, wallet.DialEthClient))
	case wc.KeystoreDir != "":
		adapter.Register(wallet.NewKeystoreConnector("injected", "Browser Wallet", wc.RPCURL, wc.KeystoreDir, wc.KeystorePassword, wallet.DialEthClient))
	default:
		adapter.Register(wallet.NewExternalConnector("injected", "Browser Wallet"))
	}

	if wc.KeystoreDir != "" {
		adapter.Register(wallet.NewKeystoreConnector("metaMask", "MetaMask", wc.RPCURL, wc.KeystoreDir, wc.KeystorePassword, wallet.DialEthClient))
	} else {
		adapter.Register(wallet.NewExternalConnector("metaMask", "MetaMask"))
	}

	adapter.Register(wallet.NewExternalConnector("walletConnect", "WalletConnect"))
	adapter.Register(wallet.NewExternalConnector("coinbaseWallet", "Coinbase Wallet"))

	if wc.WatchAddress != "" {
		adapter.Register(wallet.NewWatchConnector(wc.WatchAddress, wc.RPCURL, wallet.DialEthClient))
	}
	return adapter
}

// exitDisconnecting releases the wallet session before exiting. Deferred
// Disconnect calls do not run on os.Exit.
func exitDisconnecting(adapter *wallet.Adapter, err error) {
	adapter.Disconnect()
	printError(err)
	osExit(1)
}

// connectWallet starts a connection and waits for it to settle
func connectWallet(adapter *wallet.Adapter, connectorID string, timeout time.Duration) (wallet.Snapshot, error) {
	adapter.Connect(connectorID)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	snap, err := adapter.WaitSettled(ctx)
	if err != nil {
		return snap, fmt.Errorf("wallet did not respond: %w", err)
	}
	if !snap.IsConnected() {
		if snap.Err != nil {
			return snap, snap.Err
		}
		return snap, wallet.ErrNotConnected
	}
	return snap, nil
}
