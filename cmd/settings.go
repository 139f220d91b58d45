package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change display preferences",
	Long: `Show and change the persisted display preferences: theme, language and the
fiat currency values are shown in.

Examples:
  dex-swap settings show
  dex-swap settings set theme dark
  dex-swap settings set currency EUR
  dex-swap settings reset`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current preferences",
	Run:   runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:       "set <theme|language|currency> <value>",
	Short:     "Change one preference",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"theme", "language", "currency"},
	Run:       runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default preferences",
	Run:   runSettingsReset,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	store := newSettingsStore(loadConfig())

	if jsonOutput {
		printJSON(store.Preferences())
		return
	}
	displayPreferences(store)
}

func runSettingsSet(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	store := newSettingsStore(loadConfig())

	key, value := strings.ToLower(args[0]), args[1]

	var err error
	switch key {
	case "theme":
		err = store.SetTheme(value)
	case "language", "lang":
		err = store.SetLanguage(value)
	case "currency":
		err = store.SetCurrency(value)
	default:
		err = fmt.Errorf("unknown setting '%s', must be 'theme', 'language', or 'currency'", key)
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(store.Preferences())
		return
	}
	printSuccess(color.GreenString("✓ Saved %s.", key))
}

func runSettingsReset(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	store := newSettingsStore(loadConfig())

	exitOnError(store.Reset())

	if jsonOutput {
		printJSON(store.Preferences())
		return
	}
	printSuccess(color.GreenString("✓ Preferences restored to defaults."))
}

func displayPreferences(store *settings.Store) {
	prefs := store.Preferences()

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                   PREFERENCES")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Theme:             %s\n", color.CyanString(string(prefs.Theme)))
	fmt.Printf("  Language:          %s\n", color.CyanString(prefs.Language))
	fmt.Printf("  Currency:          %s\n", color.CyanString(prefs.Currency))
	fmt.Printf("\n  Stored in:         %s\n", color.HiBlackString(store.FilePath()))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
