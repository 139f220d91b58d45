package market

import (
	"sort"
	"strings"
	"sync"
)

const (
	// DefaultPriceUSD is used for any symbol missing from the price table
	DefaultPriceUSD = 1.0
	// DefaultLiquidityUSD is used for any symbol missing from the liquidity table
	DefaultLiquidityUSD = 1_000_000.0
)

// Token describes a fungible asset in the mock market
type Token struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`
	Decimals     int     `json:"decimals"`
	PriceUSD     float64 `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

// defaultTokens is the hard-coded mock market. Prices and liquidity are demo values,
// not market data.
var defaultTokens = []Token{
	{Symbol: "ETH", Name: "Ether", Address: "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", Decimals: 18, PriceUSD: 3500, LiquidityUSD: 1_000_000},
	{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, PriceUSD: 3500, LiquidityUSD: 800_000},
	{Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, PriceUSD: 1, LiquidityUSD: 10_000_000},
	{Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, PriceUSD: 1, LiquidityUSD: 8_000_000},
	{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, PriceUSD: 1, LiquidityUSD: 5_000_000},
	{Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8, PriceUSD: 65000, LiquidityUSD: 2_000_000},
	{Symbol: "LINK", Name: "ChainLink Token", Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Decimals: 18, PriceUSD: 15, LiquidityUSD: 500_000},
	{Symbol: "UNI", Name: "Uniswap", Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Decimals: 18, PriceUSD: 8, LiquidityUSD: 400_000},
	{Symbol: "AAVE", Name: "Aave Token", Address: "0x7Fc66500c84A76Ad7e9c93437bFc5Ac33E2DDaE9", Decimals: 18, PriceUSD: 95, LiquidityUSD: 300_000},
	{Symbol: "ARB", Name: "Arbitrum", Address: "0xB50721BCf8d664c30412Cfbc6cf7a15145234ad1", Decimals: 18, PriceUSD: 1.2, LiquidityUSD: 250_000},
	{Symbol: "MATIC", Name: "Polygon", Address: "0x7D1AfA7B718fb893dB30A3aBc0Cfc608AaCfeBB0", Decimals: 18, PriceUSD: 0.7, LiquidityUSD: 350_000},
}

// Registry is a symbol-keyed lookup of mock token data
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewRegistry creates a registry seeded with the given tokens
func NewRegistry(tokens []Token) *Registry {
	r := &Registry{tokens: make(map[string]Token, len(tokens))}
	for _, t := range tokens {
		r.tokens[normalize(t.Symbol)] = t
	}
	return r
}

// DefaultRegistry returns a registry holding the hard-coded mock market
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultTokens())
}

// DefaultTokens returns a copy of the hard-coded token list
func DefaultTokens() []Token {
	out := make([]Token, len(defaultTokens))
	copy(out, defaultTokens)
	return out
}

// Lookup returns the token for a symbol and whether it is known
func (r *Registry) Lookup(symbol string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[normalize(symbol)]
	return t, ok
}

// PriceUSD returns the mock price for a symbol, or DefaultPriceUSD when unknown
func (r *Registry) PriceUSD(symbol string) float64 {
	t, ok := r.Lookup(symbol)
	if !ok || t.PriceUSD <= 0 {
		return DefaultPriceUSD
	}
	return t.PriceUSD
}

// LiquidityUSD returns the mock liquidity for a symbol, or DefaultLiquidityUSD when unknown
func (r *Registry) LiquidityUSD(symbol string) float64 {
	t, ok := r.Lookup(symbol)
	if !ok || t.LiquidityUSD <= 0 {
		return DefaultLiquidityUSD
	}
	return t.LiquidityUSD
}

// List returns all tokens sorted by symbol
func (r *Registry) List() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Merge overlays name, address and decimals from external metadata onto known
// symbols and adds unknown symbols with default market values. Prices are never
// taken from the overlay.
func (r *Registry) Merge(meta []Token) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := 0
	for _, m := range meta {
		key := normalize(m.Symbol)
		if key == "" {
			continue
		}

		t, ok := r.tokens[key]
		if !ok {
			t = Token{
				Symbol:       key,
				PriceUSD:     DefaultPriceUSD,
				LiquidityUSD: DefaultLiquidityUSD,
			}
		}
		if m.Name != "" {
			t.Name = m.Name
		}
		if m.Address != "" {
			t.Address = m.Address
		}
		if m.Decimals > 0 {
			t.Decimals = m.Decimals
		}
		r.tokens[key] = t
		merged++
	}
	return merged
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
