package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/quote"
	"dex-swap/pkg/swap"
)

var (
	activityAccount string
	activityLimit   int
)

var activityCmd = &cobra.Command{
	Use:   "activity [swap-id]",
	Short: "Show simulated swaps recorded on this machine",
	Long: `List the swaps recorded by 'dex-swap swap', newest first, or show one in full.

Examples:
  dex-swap activity
  dex-swap activity --account 0x5290... --limit 5
  dex-swap activity 3f2a9c1e-...`,
	Args: cobra.MaximumNArgs(1),
	Run:  runActivity,
}

func init() {
	rootCmd.AddCommand(activityCmd)

	activityCmd.Flags().StringVar(&activityAccount, "account", "", "Only show swaps of this account")
	activityCmd.Flags().IntVar(&activityLimit, "limit", 20, "Maximum number of swaps to show")
}

func runActivity(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	storage := newActivityStorage(loadConfig())

	if len(args) == 1 {
		exec, err := storage.Get(args[0])
		exitOnError(err)
		if jsonOutput {
			printJSON(exec)
			return
		}
		displayExecution(exec)
		return
	}

	var list []*swap.Execution
	if activityAccount != "" {
		list = storage.ListByAccount(activityAccount)
	} else {
		list = storage.List()
	}
	if activityLimit > 0 && len(list) > activityLimit {
		list = list[:activityLimit]
	}

	if jsonOutput {
		printJSON(list)
		return
	}

	if len(list) == 0 {
		color.Yellow("\nNo swaps recorded yet.\n")
		fmt.Println("\nTo simulate a swap:")
		color.Cyan("  dex-swap swap 1 ETH to USDC\n")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 120))
	color.Green("                                                SWAP ACTIVITY")
	fmt.Println(strings.Repeat("=", 120))
	fmt.Printf("\n  Showing %s of %s swaps\n\n", color.CyanString("%d", len(list)), color.CyanString("%d", storage.Count()))

	// Display swap table
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tAMOUNT IN\tAMOUNT OUT\tIMPACT\tSTATUS\tACCOUNT\tTX")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, exec := range list {
		timestamp := exec.Timestamp.Local().Format("2006-01-02 15:04")
		amountIn := fmt.Sprintf("%s %s", exec.Request.Amount, exec.Request.SourceToken)
		amountOut := fmt.Sprintf("~%s %s", quote.FormatAmount(exec.Quote.OutputAmount, 6), exec.Request.DestToken)
		impact := quote.FormatAmount(exec.Quote.PriceImpactPercent, 2) + "%"

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			timestamp, amountIn, amountOut, impact,
			getExecutionStatusColor(exec.Status),
			truncateString(exec.Account, 12),
			truncateString(exec.TxHash, 14))
	}

	w.Flush()
	fmt.Println("\n" + strings.Repeat("=", 120) + "\n")
}

func getExecutionStatusColor(status swap.ExecutionStatus) string {
	switch status {
	case swap.ExecutionCompleted:
		return color.GreenString(string(status))
	case swap.ExecutionPending:
		return color.YellowString(string(status))
	case swap.ExecutionFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
