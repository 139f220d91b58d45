package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/parser"
	"dex-swap/pkg/quote"
)

var (
	quoteSlippage float64
	quoteWatch    bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Show an indicative quote for a swap",
	Long: `Estimate the output, price impact, fee and minimum received for a swap using
the built-in market table.

With --watch, each line typed on stdin ("<amount> <token> to <token>") updates
the form and a quote is printed once input pauses.

Examples:
  dex-swap quote 10 ETH to USDC
  dex-swap quote 2500 USDC to WBTC --slippage 1
  dex-swap quote --watch`,
	Run: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Float64Var(&quoteSlippage, "slippage", -1, "Slippage tolerance in percent (default from config)")
	quoteCmd.Flags().BoolVarP(&quoteWatch, "watch", "w", false, "Read swap forms from stdin and quote as you type")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	calc := newCalculator(cfg)

	tolerance := cfg.SlippageTolerance
	if quoteSlippage >= 0 {
		tolerance = quoteSlippage
	}

	if quoteWatch {
		watchQuotes(calc, cfg.Debounce, tolerance, jsonOutput)
		return
	}

	if len(args) == 0 {
		printError(fmt.Errorf("expected '<amount> <token> to <token>' (e.g., '10 ETH to USDC')"))
		os.Exit(1)
	}

	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	exitOnError(err)

	q := calc.Compute(req.Amount, req.SourceToken, req.DestToken, tolerance)
	if jsonOutput {
		printJSON(q)
		return
	}
	displayQuote(q)
}

// watchQuotes feeds stdin lines through the debouncer so only the settled form
// is quoted
func watchQuotes(calc *quote.Calculator, window time.Duration, tolerance float64, jsonOutput bool) {
	var outMu sync.Mutex
	render := func(q quote.Quote) {
		outMu.Lock()
		defer outMu.Unlock()
		if jsonOutput {
			printJSON(q)
			return
		}
		displayQuote(q)
	}

	d := quote.NewDebouncer(calc, window, tolerance, render)
	defer d.Stop()

	if !jsonOutput {
		fmt.Printf("\nType a swap form and press Enter, e.g. %s. Ctrl+D to finish.\n\n", color.CyanString("10 ETH to USDC"))
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		req, err := parser.ParseSwapCommand(line)
		if err != nil {
			outMu.Lock()
			color.Red("%v", err)
			outMu.Unlock()
			continue
		}
		d.Submit(quote.Request{Amount: req.Amount, From: req.SourceToken, To: req.DestToken})
	}

	// Quote whatever was typed last before stdin closed
	d.Flush()
}

func displayQuote(q quote.Quote) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	if q.IsZero() {
		color.Yellow("\n  Enter an amount greater than zero to get a quote.")
		fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
		return
	}

	fmt.Printf("\n  From:              %s %s\n", quote.FormatAmount(q.InputAmount, 8), color.YellowString(q.From))
	fmt.Printf("  To:                ~%s %s\n", quote.FormatAmount(q.OutputAmount, 6), color.YellowString(q.To))
	fmt.Printf("  Rate:              1 %s = %s %s\n", q.From, quote.FormatAmount(q.Rate, 8), q.To)
	fmt.Printf("  Price Impact:      %s\n", coloredImpact(q))
	fmt.Printf("  Fee (0.3%%):        %s %s\n", quote.FormatAmount(q.FeeAmount, 8), q.From)
	fmt.Printf("  Slippage:          %s%%\n", quote.FormatAmount(q.SlippageTolerance, 2))
	fmt.Printf("  Minimum Received:  %s %s\n", color.CyanString(quote.FormatAmount(q.MinimumReceived, 6)), q.To)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func coloredImpact(q quote.Quote) string {
	text := quote.FormatAmount(q.PriceImpactPercent, 2) + "%"
	switch q.ImpactLevel() {
	case quote.ImpactLow:
		return color.GreenString(text)
	case quote.ImpactMedium:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}
