package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-swap/pkg/api"
	"dex-swap/pkg/quote"
	"dex-swap/pkg/wallet"
)

var (
	serveListen  string
	serveOrigins []string
	serveWallet  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local JSON API for browser front-ends",
	Long: `Serve quotes, tokens, transaction history, preferences and the wallet
snapshot over HTTP for a browser swap widget.

Endpoints:
  GET /v1/quote?from=ETH&to=USDC&amount=10&slippage=0.5
  GET /v1/tokens
  GET /v1/history/{address}
  GET /v1/settings, PUT /v1/settings
  GET /v1/wallet
  GET /v1/activity
  GET /metrics

Examples:
  dex-swap serve
  dex-swap serve --listen :8787 --origin https://app.example.com --wallet watch`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "Allowed CORS origins (default localhost dev servers)")
	serveCmd.Flags().StringVar(&serveWallet, "wallet", "", "Connect this wallet connector at startup")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	registry := loadRegistry(cfg)
	activity := newActivityStorage(cfg)
	adapter := newAdapter(cfg)

	if serveWallet != "" {
		snap, err := connectWallet(adapter, serveWallet, walletConnectTimeout)
		if err != nil {
			printWalletError(snap, err)
			os.Exit(1)
		}
		defer adapter.Disconnect()
	}

	unsubscribe, err := adapter.Subscribe(func(snap wallet.Snapshot) {
		log.Info().Str("status", string(snap.Status)).Str("address", snap.Address).Msg("Wallet state changed")
	})
	if err != nil {
		exitDisconnecting(adapter, err)
	}
	defer unsubscribe()

	serverCfg := api.DefaultServerConfig()
	serverCfg.Address = cfg.API.Listen
	serverCfg.RatePerMinute = cfg.API.RateLimit
	serverCfg.DefaultSlippage = cfg.SlippageTolerance
	if serveListen != "" {
		serverCfg.Address = serveListen
	}
	if len(serveOrigins) > 0 {
		serverCfg.AllowedOrigins = serveOrigins
	}

	server := api.NewServer(serverCfg, api.Deps{
		Registry:   registry,
		Calculator: quote.NewCalculator(registry),
		History:    newHistoryClient(cfg),
		Settings:   newSettingsStore(cfg),
		Wallet:     adapter,
		Activity:   activity,
	})

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        DEX-SWAP API")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  Listening on:      %s\n", color.CyanString("http://%s", serverCfg.Address))
	fmt.Printf("  Rate limit:        %d requests/minute per IP\n", serverCfg.RatePerMinute)
	fmt.Printf("  Allowed origins:   %s\n", strings.Join(serverCfg.AllowedOrigins, ", "))
	color.Yellow("\n• Press Ctrl+C to stop gracefully\n")
	fmt.Println(strings.Repeat("=", 70) + "\n")

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			exitDisconnecting(adapter, err)
		}
		return
	case <-sigChan:
	}

	color.Yellow("\nReceived shutdown signal. Stopping server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		printError(err)
		return
	}

	color.Green("\n✓ Server stopped.\n")
}
