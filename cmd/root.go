package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"dex-swap/pkg/logging"
)

var log = logging.New("cmd")

var rootCmd = &cobra.Command{
	Use:   "dex-swap",
	Short: "A terminal client for quoting and simulating DEX token swaps",
	Long: `dex-swap quotes token swaps against a built-in market table, connects to an
EVM wallet, shows the account's transaction history and keeps your display
preferences. Swaps are simulated and recorded locally; nothing is broadcast.

Examples:
  dex-swap quote 10 ETH to USDC
  dex-swap swap 1 ETH to USDC --wallet injected
  dex-swap wallet connect watch
  dex-swap history 0x5290...9ee7
  dex-swap settings set theme dark
  dex-swap serve`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logging.SetVerbose(verbose)

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			if err := logging.SetLevel(level); err != nil {
				exitOnError(fmt.Errorf("invalid --log-level: %w", err))
			}
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides --verbose")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

func printJSON(v any) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}

// startSpinner starts a spinner unless output is JSON. The returned func stops it.
func startSpinner(suffix string, jsonOutput bool) func() {
	if jsonOutput {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

// osExit is swapped out by tests
var osExit = os.Exit

func exitOnError(err error) {
	if err != nil {
		printError(err)
		osExit(1)
	}
}
