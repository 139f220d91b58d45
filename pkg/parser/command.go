package parser

import (
	"fmt"
	"regexp"
	"strings"

	"dex-swap/pkg/swap"
)

// Pattern: <amount> <source_token> TO|FOR|-> <dest_token>
// Matches: "1 ETH TO USDC", "1.5 WETH FOR DAI", ".5 ETH -> USDC"
var swapPattern = regexp.MustCompile(`^(\d*\.?\d+|\d+\.)\s*([A-Z0-9]+)\s+(?:TO|FOR|->|=>)\s+([A-Z0-9]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 ETH to USDC"
//   - "1.5 WETH for DAI"
//   - "100 USDC -> ETH"
func ParseSwapCommand(command string) (*swap.Request, error) {
	// Normalize the command
	command = strings.Join(strings.Fields(strings.ToUpper(command)), " ")

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 ETH to USDC')")
	}

	return &swap.Request{
		Amount:      matches[1],
		SourceToken: NormalizeTokenSymbol(matches[2]),
		DestToken:   NormalizeTokenSymbol(matches[3]),
	}, nil
}

// aliases maps common alternative tickers onto the symbols in the token table
var aliases = map[string]string{
	"ETHER": "ETH",
	"BTC":   "WBTC",
	"XBT":   "WBTC",
	"POL":   "MATIC",
	"USDCE": "USDC",
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	// Convert to uppercase for consistency
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
