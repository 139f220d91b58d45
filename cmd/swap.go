package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/parser"
	"dex-swap/pkg/quote"
	"dex-swap/pkg/swap"
	"dex-swap/pkg/wallet"
)

const walletConnectTimeout = 45 * time.Second

var (
	swapWallet   string
	swapSlippage float64
	noConfirm    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Simulate a token swap from your wallet",
	Long: `Quote a swap, connect your wallet and record a simulated execution.

No transaction is signed or broadcast. The swap waits for a simulated
confirmation and is stored in your activity log with a placeholder hash.

Examples:
  dex-swap swap 1 ETH to USDC
  dex-swap swap 500 USDC to ETH --wallet metaMask --slippage 1
  dex-swap swap 0.5 WETH for DAI --wallet watch --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&swapWallet, "wallet", "injected", "Wallet connector to use (see: dex-swap wallet connectors)")
	swapCmd.Flags().Float64Var(&swapSlippage, "slippage", -1, "Slippage tolerance in percent (default from config)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	// Parse the command
	commandStr := strings.Join(args, " ")
	parsed, err := parser.ParseSwapCommand(commandStr)
	exitOnError(err)

	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()

	req := *parsed
	req.SlippageTolerance = cfg.SlippageTolerance
	if swapSlippage >= 0 {
		req.SlippageTolerance = swapSlippage
	}

	// Connect wallet with spinner
	adapter := newAdapter(cfg)
	stop := startSpinner("Waiting for wallet...", jsonOutput)
	snap, err := connectWallet(adapter, swapWallet, walletConnectTimeout)
	stop()
	if err != nil {
		printWalletError(snap, err)
		os.Exit(1)
	}
	defer adapter.Disconnect()

	executor := swap.NewExecutor(adapter, newCalculator(cfg), newActivityStorage(cfg), cfg.ConfirmDelay)

	q, err := executor.Preview(req)
	if err != nil {
		if errors.Is(err, swap.ErrZeroQuote) {
			err = fmt.Errorf("%w: %s %s", err, req.Amount, req.SourceToken)
		}
		exitDisconnecting(adapter, err)
	}

	if !jsonOutput {
		displayQuote(q)
		fmt.Printf("  Wallet:            %s (%s)\n", color.CyanString(snap.Address), snap.Connector)
		if q.ImpactLevel() == quote.ImpactHigh {
			color.Red("\n  Warning: price impact is high for this trade size.")
		}
	}

	// Ask for confirmation
	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stop = startSpinner("Waiting for confirmation...", jsonOutput)
	exec, err := executor.Execute(ctx, req)
	stop()

	if err != nil {
		if exec != nil {
			color.Yellow("\nSwap %s was recorded as %s.", exec.ID, exec.Status)
		}
		exitDisconnecting(adapter, err)
	}

	if jsonOutput {
		printJSON(exec)
		return
	}
	displayExecution(exec)
}

func displayExecution(exec *swap.Execution) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                   SWAP CONFIRMED")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Swap ID:           %s\n", exec.ID)
	fmt.Printf("  Sent:              %s %s\n", exec.Request.Amount, color.YellowString(exec.Request.SourceToken))
	fmt.Printf("  Received:          ~%s %s\n", quote.FormatAmount(exec.Quote.OutputAmount, 6), color.YellowString(exec.Request.DestToken))
	fmt.Printf("  Tx Hash:           %s\n", color.HiBlackString(exec.TxHash))
	fmt.Printf("  Status:            %s\n", getExecutionStatusColor(exec.Status))

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("\nView your recent swaps with:")
	color.Cyan("  dex-swap activity\n")
}

func printWalletError(snap wallet.Snapshot, err error) {
	if snap.Err != nil && snap.Err.Kind == wallet.ErrorUserRejected {
		color.Yellow("\n%s", snap.Err.Message)
		return
	}
	printError(err)
	if errors.Is(err, wallet.ErrProviderUnavailable) || (snap.Err != nil && snap.Err.Kind == wallet.ErrorGeneric) {
		fmt.Println("Configure private_key, keystore_dir or watch_address, or pick another wallet:")
		color.Cyan("  dex-swap wallet connectors\n")
	}
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
