package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/market"
	"dex-swap/pkg/wallet"
)

var (
	walletBalance bool
	walletTokens  bool
)

// nativeTokenAddress is the placeholder address token lists use for ether
const nativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Connect and inspect wallets",
	Long: `Connect one of the configured wallets and inspect the connected account.

Injected and MetaMask wallets use the private_key or keystore_dir settings and
the rpc_url endpoint. A watch_address connects read-only. WalletConnect and
Coinbase Wallet require a browser session and are not available here.`,
}

var walletConnectorsCmd = &cobra.Command{
	Use:   "connectors",
	Short: "List the available wallet connectors",
	Run:   runWalletConnectors,
}

var walletConnectCmd = &cobra.Command{
	Use:   "connect <connector>",
	Short: "Connect a wallet and show the account",
	Long: `Connect a wallet and show the account, chain and connection status.

Examples:
  dex-swap wallet connect injected
  dex-swap wallet connect watch --balance`,
	Args: cobra.ExactArgs(1),
	Run:  runWalletConnect,
}

var walletSignCmd = &cobra.Command{
	Use:   "sign <connector> <message>",
	Short: "Sign a message with the connected account",
	Long: `Sign a message with the EIP-191 personal message prefix to prove ownership
of the connected account.

Examples:
  dex-swap wallet sign injected "hello dex-swap"`,
	Args: cobra.MinimumNArgs(2),
	Run:  runWalletSign,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletConnectorsCmd)
	walletCmd.AddCommand(walletConnectCmd)
	walletCmd.AddCommand(walletSignCmd)

	walletConnectCmd.Flags().BoolVarP(&walletBalance, "balance", "b", false, "Also show the native balance")
	walletConnectCmd.Flags().BoolVarP(&walletTokens, "tokens", "t", false, "Also show ERC-20 balances of listed tokens")
}

func runWalletConnectors(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	adapter := newAdapter(cfg)
	connectors := adapter.Connectors()

	if jsonOutput {
		type connectorJSON struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Kind  string `json:"kind"`
			Label string `json:"label"`
		}
		out := make([]connectorJSON, 0, len(connectors))
		for _, c := range connectors {
			out = append(out, connectorJSON{ID: c.ID, Name: c.Name, Kind: c.Kind.String(), Label: c.Kind.Label()})
		}
		printJSON(out)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  WALLET CONNECTORS")
	fmt.Println(strings.Repeat("=", 60) + "\n")

	for _, c := range connectors {
		fmt.Printf("  %-26s  %s\n", color.CyanString(c.ID), c.Kind.Label())
	}

	chains := adapter.SupportedChains()
	ids := make([]string, 0, len(chains))
	for _, id := range chains {
		ids = append(ids, fmt.Sprintf("%d", id))
	}
	fmt.Printf("\n  Supported chains:  %s\n", strings.Join(ids, ", "))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func runWalletConnect(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	adapter := newAdapter(cfg)

	unsubscribe, err := adapter.Subscribe(func(snap wallet.Snapshot) {
		log.Debug().Str("status", string(snap.Status)).Str("connector", snap.Connector).Msg("Wallet state changed")
	})
	exitOnError(err)
	defer unsubscribe()

	stop := startSpinner("Waiting for wallet...", jsonOutput)
	snap, err := connectWallet(adapter, args[0], walletConnectTimeout)
	stop()

	if err != nil {
		if jsonOutput {
			printJSON(snap)
			os.Exit(1)
		}
		printWalletError(snap, err)
		os.Exit(1)
	}
	defer adapter.Disconnect()

	var balance string
	if walletBalance {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		wei, err := adapter.Balance(ctx)
		cancel()
		if err != nil {
			color.Yellow("\nBalance unavailable: %v", err)
		} else {
			balance = market.FormatUnits(wei, market.EtherDecimals, 6)
		}
	}

	var tokenBalances map[string]string
	if walletTokens {
		tokenBalances = readTokenBalances(adapter, loadRegistry(cfg).List())
	}

	if jsonOutput {
		printJSON(struct {
			wallet.Snapshot
			Balance string            `json:"balance,omitempty"`
			Tokens  map[string]string `json:"tokens,omitempty"`
		}{snap, balance, tokenBalances})
		return
	}
	displayWallet(snap, balance)
	displayTokenBalances(tokenBalances)
}

// readTokenBalances returns non-zero balances keyed by symbol
func readTokenBalances(adapter *wallet.Adapter, tokens []market.Token) map[string]string {
	out := make(map[string]string)
	for _, token := range tokens {
		if token.Address == "" || strings.EqualFold(token.Address, nativeTokenAddress) || !common.IsHexAddress(token.Address) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		amount, err := adapter.TokenBalance(ctx, common.HexToAddress(token.Address))
		cancel()
		if err != nil {
			log.Debug().Err(err).Str("token", token.Symbol).Msg("Token balance unavailable")
			continue
		}
		if amount.Sign() > 0 {
			out[token.Symbol] = market.FormatUnits(amount, token.Decimals, 6)
		}
	}
	return out
}

func displayTokenBalances(balances map[string]string) {
	if balances == nil {
		return
	}
	if len(balances) == 0 {
		color.Yellow("  No token balances found.\n")
		return
	}

	symbols := make([]string, 0, len(balances))
	for symbol := range balances {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	fmt.Println("  Token balances:")
	for _, symbol := range symbols {
		fmt.Printf("    %-10s %s\n", color.YellowString(symbol), balances[symbol])
	}
	fmt.Println()
}

func runWalletSign(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	message := strings.Join(args[1:], " ")

	cfg := loadConfig()
	adapter := newAdapter(cfg)

	snap, err := connectWallet(adapter, args[0], walletConnectTimeout)
	if err != nil {
		printWalletError(snap, err)
		os.Exit(1)
	}
	defer adapter.Disconnect()

	sig, err := adapter.SignMessage([]byte(message))
	if err != nil {
		exitDisconnecting(adapter, err)
	}

	if jsonOutput {
		printJSON(map[string]string{
			"address":   snap.Address,
			"message":   message,
			"signature": hexutil.Encode(sig),
		})
		return
	}

	fmt.Printf("\n  Address:    %s\n", color.CyanString(snap.Address))
	fmt.Printf("  Message:    %s\n", message)
	fmt.Printf("  Signature:  %s\n\n", color.HiBlackString(hexutil.Encode(sig)))
}

func displayWallet(snap wallet.Snapshot, balance string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     WALLET")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Status:            %s\n", getWalletStatusColor(snap.Status))
	fmt.Printf("  Connector:         %s\n", snap.Connector)
	fmt.Printf("  Address:           %s\n", color.CyanString(snap.Address))
	fmt.Printf("  Chain ID:          %d\n", snap.ChainID)
	if balance != "" {
		fmt.Printf("  Balance:           %s ETH\n", color.YellowString(balance))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func getWalletStatusColor(status wallet.Status) string {
	switch status {
	case wallet.StatusConnected:
		return color.GreenString(string(status))
	case wallet.StatusConnecting:
		return color.YellowString(string(status))
	case wallet.StatusError:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
