package quote

import (
	"github.com/shopspring/decimal"
)

// Quote is an indicative estimate for a prospective swap. It has no identity and
// is recomputed whenever the pair or amount changes.
type Quote struct {
	From               string  `json:"from"`
	To                 string  `json:"to"`
	InputAmount        float64 `json:"input_amount"`
	Rate               float64 `json:"rate"`
	OutputAmount       float64 `json:"output_amount"`
	PriceImpactPercent float64 `json:"price_impact_percent"`
	FeeAmount          float64 `json:"fee_amount"`
	SlippageTolerance  float64 `json:"slippage_tolerance"`
	MinimumReceived    float64 `json:"minimum_received"`
}

// IsZero reports whether the quote was computed from an empty or invalid amount
func (q Quote) IsZero() bool {
	return q.InputAmount == 0
}

// ImpactLevel classifies price impact for display
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// ImpactLevel buckets the price impact the way the swap form colors it
func (q Quote) ImpactLevel() ImpactLevel {
	switch {
	case q.PriceImpactPercent >= 5:
		return ImpactHigh
	case q.PriceImpactPercent >= 1:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// FormatAmount renders v with at most places decimals and no trailing zeros
func FormatAmount(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}
