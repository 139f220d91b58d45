package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/market"
	"dex-swap/pkg/quote"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List all supported tokens",
	Long: `List the tokens in the market table with their reference USD price and pool
liquidity. When token_list_url is configured, names, addresses and decimals are
taken from that list.

Examples:
  dex-swap list-tokens
  dex-swap list-tokens --symbol USD`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()

	stop := func() {}
	if cfg.TokenListURL != "" {
		stop = startSpinner("Fetching token list...", jsonOutput)
	}
	registry := loadRegistry(cfg)
	stop()

	tokens := registry.List()

	// Apply filters
	if filterSymbol != "" {
		var temp []market.Token
		for _, token := range tokens {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		tokens = temp
	}

	// Output
	if jsonOutput {
		if tokens == nil {
			tokens = []market.Token{}
		}
		printJSON(tokens)
		return
	}
	displayTokens(tokens)
}

func displayTokens(tokens []market.Token) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90) + "\n")

	for _, token := range tokens {
		address := token.Address
		if address == "" {
			address = "native"
		}
		// Truncate address if too long
		if len(address) > 42 {
			address = address[:39] + "..."
		}

		fmt.Printf("  %-16s  %-18s  $%-12s  liq $%-12s  %2d decimals  %s\n",
			color.YellowString(token.Symbol),
			truncateString(token.Name, 18),
			quote.FormatAmount(token.PriceUSD, 2),
			quote.FormatAmount(token.LiquidityUSD, 0),
			token.Decimals,
			color.HiBlackString(address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
