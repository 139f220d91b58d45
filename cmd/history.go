package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/history"
)

var (
	watchHistory  bool
	watchInterval int
	historyWallet string
)

var historyCmd = &cobra.Command{
	Use:   "history [address]",
	Short: "Show an account's recent transactions",
	Long: `Show recent transactions of an address from the configured block explorer.

Without an address, the account of the --wallet connector is used.

Examples:
  dex-swap history 0x52908400098527886E0F7030069857D2E4169EE7
  dex-swap history --wallet watch
  dex-swap history 0x5290... --watch --interval 30`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVarP(&watchHistory, "watch", "w", false, "Watch for new transactions continuously")
	historyCmd.Flags().IntVar(&watchInterval, "interval", 15, "Polling interval in seconds (when watching)")
	historyCmd.Flags().StringVar(&historyWallet, "wallet", "", "Use the account of this wallet connector")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()

	var address string
	switch {
	case len(args) == 1:
		address = args[0]
	case historyWallet != "":
		adapter := newAdapter(cfg)
		snap, err := connectWallet(adapter, historyWallet, walletConnectTimeout)
		if err != nil {
			printWalletError(snap, err)
			os.Exit(1)
		}
		address = snap.Address
		adapter.Disconnect()
	default:
		printError(fmt.Errorf("an address or --wallet is required"))
		os.Exit(1)
	}

	client := newHistoryClient(cfg)

	if watchHistory {
		watchTransactions(client, address, jsonOutput)
	} else {
		checkTransactions(client, address, jsonOutput)
	}
}

func fetchTransactions(client *history.Client, address string) ([]history.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return client.Transactions(ctx, address)
}

func checkTransactions(client *history.Client, address string, jsonOutput bool) {
	stop := startSpinner("Fetching transactions...", jsonOutput)
	txs, err := fetchTransactions(client, address)
	stop()

	if err != nil {
		printError(err)
		if errors.Is(err, history.ErrUpstream) {
			fmt.Println("The explorer did not answer. Retry with:")
			color.Cyan("  dex-swap history %s\n", address)
		}
		os.Exit(1)
	}

	entries := history.Annotate(txs, address)
	if jsonOutput {
		printJSON(entries)
		return
	}
	displayTransactions(entries, address)
}

func watchTransactions(client *history.Client, address string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}
	if watchInterval < 5 {
		watchInterval = 5
	}

	fmt.Printf("\nWatching transactions of %s\n", color.CyanString(address))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	seen := checkAndDisplayNew(client, address, nil)

	// Then check periodically
	for range ticker.C {
		seen = checkAndDisplayNew(client, address, seen)
	}
}

// checkAndDisplayNew prints transactions not in seen and returns the updated set.
// A nil seen prints everything.
func checkAndDisplayNew(client *history.Client, address string, seen map[string]bool) map[string]bool {
	txs, err := fetchTransactions(client, address)
	if err != nil {
		color.Red("Error: %v (retrying in %ds)", err, watchInterval)
		return seen
	}

	first := seen == nil
	if first {
		seen = make(map[string]bool, len(txs))
	}

	var fresh []history.Transaction
	for _, tx := range txs {
		if !seen[tx.Hash] {
			seen[tx.Hash] = true
			fresh = append(fresh, tx)
		}
	}

	if first {
		displayTransactions(history.Annotate(fresh, address), address)
	} else {
		for _, e := range history.Annotate(fresh, address) {
			printTransactionLine(e)
		}
	}
	return seen
}

func displayTransactions(entries []history.Entry, address string) {
	fmt.Println("\n" + strings.Repeat("=", 100))
	color.Green("                                      TRANSACTION HISTORY")
	fmt.Println(strings.Repeat("=", 100))
	fmt.Printf("\n  Account: %s\n\n", color.CyanString(address))

	if len(entries) == 0 {
		color.Yellow("  No transactions found.")
	}
	for _, e := range entries {
		printTransactionLine(e)
	}

	fmt.Println("\n" + strings.Repeat("=", 100) + "\n")
}

func printTransactionLine(e history.Entry) {
	counterparty := e.To
	if e.Direction == history.DirectionIn {
		counterparty = e.From
	}
	status := color.GreenString("ok")
	if e.Failed() {
		status = color.RedString("failed")
	}

	fmt.Printf("  %s  %-14s  %s ETH  %-8s  %s  %s\n",
		e.Time().Local().Format("2006-01-02 15:04"),
		getDirectionColor(e.Direction),
		color.YellowString("%-14s", e.ValueEther),
		status,
		truncateString(counterparty, 14),
		color.HiBlackString(truncateString(e.Hash, 20)))
}

func getDirectionColor(d history.Direction) string {
	switch d {
	case history.DirectionIn:
		return color.GreenString(string(d))
	case history.DirectionOut:
		return color.YellowString(string(d))
	case history.DirectionSelf:
		return color.CyanString(string(d))
	default:
		return string(d)
	}
}
