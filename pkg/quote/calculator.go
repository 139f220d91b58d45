// Package quote computes indicative swap quotes from the mock market tables.
//
// Every operation here is total: malformed, blank, zero or negative amounts degrade
// to zero instead of returning an error. Quotes are cosmetic estimates for the
// swap form and carry no economic guarantee.
package quote

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// ProtocolFeeRate is the flat fee charged on the input amount
	ProtocolFeeRate = 0.003

	// slippagePerThousand is the synthetic rate penalty per 1000 units of input
	slippagePerThousand = 0.005

	minPriceImpactPercent = 0.01
	maxPriceImpactPercent = 10.0
)

// PriceSource provides mock USD prices and liquidity per symbol. Implementations
// must return a positive default for unknown symbols.
type PriceSource interface {
	PriceUSD(symbol string) float64
	LiquidityUSD(symbol string) float64
}

// Calculator computes quotes against a PriceSource
type Calculator struct {
	prices PriceSource
}

// NewCalculator creates a calculator backed by prices
func NewCalculator(prices PriceSource) *Calculator {
	return &Calculator{prices: prices}
}

// ParseAmount converts user input into a non-negative amount. Blank, non-numeric,
// non-finite, zero and negative inputs all yield 0.
func ParseAmount(input string) float64 {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0
	}

	d, err := decimal.NewFromString(input)
	if err != nil || !d.IsPositive() {
		return 0
	}

	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// Rate returns how many units of to one unit of from buys at mock prices
func (c *Calculator) Rate(from, to string) float64 {
	return c.prices.PriceUSD(from) / c.prices.PriceUSD(to)
}

// SlippageFactor returns the synthetic penalty applied to the rate for an amount
func SlippageFactor(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return math.Min(1, (amount/1000)*slippagePerThousand)
}

// OutputAmount returns the estimated amount of to received for input of from
func (c *Calculator) OutputAmount(input, from, to string) float64 {
	return c.outputFor(ParseAmount(input), from, to)
}

func (c *Calculator) outputFor(amount float64, from, to string) float64 {
	if amount <= 0 {
		return 0
	}
	effectiveRate := c.Rate(from, to) * (1 - SlippageFactor(amount))
	return amount * effectiveRate
}

// PriceImpactPercent returns the displayed price impact, clamped to [0.01, 10].
// Non-positive or malformed input returns 0 without clamping.
//
// The from-side term is normalized by liquidity in USD while the to-side term is
// normalized by liquidity times price. The asymmetry is kept for compatibility with
// the figures the web client displays.
func (c *Calculator) PriceImpactPercent(input, from, to string) float64 {
	return c.impactFor(ParseAmount(input), from, to)
}

func (c *Calculator) impactFor(amount float64, from, to string) float64 {
	if amount <= 0 {
		return 0
	}

	valueUSD := amount * c.prices.PriceUSD(from)
	fromImpact := valueUSD / c.prices.LiquidityUSD(from)
	toImpact := valueUSD / (c.prices.LiquidityUSD(to) * c.prices.PriceUSD(to))

	impact := math.Max(fromImpact, toImpact) * 100
	if math.IsNaN(impact) {
		return maxPriceImpactPercent
	}
	return math.Max(minPriceImpactPercent, math.Min(maxPriceImpactPercent, impact))
}

// FeeAmount returns the protocol fee in units of from
func (c *Calculator) FeeAmount(input, from string) float64 {
	return feeFor(ParseAmount(input))
}

func feeFor(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return amount * ProtocolFeeRate
}

// Compute builds a full quote. tolerancePercent is the user's slippage tolerance
// used for the minimum-received figure; values outside [0, 100) are treated as 0.
func (c *Calculator) Compute(input, from, to string, tolerancePercent float64) Quote {
	amount := ParseAmount(input)
	if tolerancePercent < 0 || tolerancePercent >= 100 {
		tolerancePercent = 0
	}

	output := c.outputFor(amount, from, to)
	return Quote{
		From:               normalizeSymbol(from),
		To:                 normalizeSymbol(to),
		InputAmount:        amount,
		Rate:               c.Rate(from, to),
		OutputAmount:       output,
		PriceImpactPercent: c.impactFor(amount, from, to),
		FeeAmount:          feeFor(amount),
		SlippageTolerance:  tolerancePercent,
		MinimumReceived:    output * (1 - tolerancePercent/100),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
