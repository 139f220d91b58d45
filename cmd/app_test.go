package cmd

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-swap/pkg/wallet"
)

const testWatchAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	osExit = func(c int) { code = c }
	t.Cleanup(func() { osExit = os.Exit })
	return &code
}

func TestExitDisconnectingReleasesWallet(t *testing.T) {
	code := stubExit(t)

	adapter := wallet.NewAdapter()
	adapter.Register(wallet.NewWatchConnector(testWatchAddress, "", nil))

	snap, err := connectWallet(adapter, "watch", time.Second)
	require.NoError(t, err)
	require.True(t, snap.IsConnected())

	exitDisconnecting(adapter, errors.New("swap failed"))

	assert.Equal(t, 1, *code)
	snap = adapter.Snapshot()
	assert.Equal(t, wallet.StatusDisconnected, snap.Status)
	assert.Empty(t, snap.Address)
}

func TestExitOnErrorIgnoresNil(t *testing.T) {
	code := stubExit(t)

	exitOnError(nil)
	assert.Equal(t, -1, *code)

	exitOnError(errors.New("boom"))
	assert.Equal(t, 1, *code)
}

func TestConnectWalletReportsFailure(t *testing.T) {
	adapter := wallet.NewAdapter()
	adapter.Register(wallet.NewExternalConnector("walletConnect", "WalletConnect"))

	snap, err := connectWallet(adapter, "walletConnect", time.Second)
	require.Error(t, err)
	assert.Equal(t, wallet.StatusError, snap.Status)
	require.NotNil(t, snap.Err)
	assert.Equal(t, wallet.ErrorGeneric, snap.Err.Kind)
}
