package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-swap/pkg/market"
)

func newTestCalculator() *Calculator {
	return NewCalculator(market.NewRegistry([]market.Token{
		{Symbol: "ETH", PriceUSD: 3500, LiquidityUSD: 1_000_000},
		{Symbol: "USDC", PriceUSD: 1, LiquidityUSD: 10_000_000},
		{Symbol: "WBTC", PriceUSD: 65000, LiquidityUSD: 2_000_000},
		{Symbol: "LINK", PriceUSD: 15, LiquidityUSD: 500_000},
	}))
}

var symbols = []string{"ETH", "USDC", "WBTC", "LINK", "UNKNOWN"}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"10", 10},
		{" 1.5 ", 1.5},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"0", 0},
		{"-5", 0},
		{"1e3", 1000},
		{"NaN", 0},
		{"1e400", 0},
		{"0x10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.input))
		})
	}
}

func TestRateReciprocal(t *testing.T) {
	calc := newTestCalculator()

	for _, a := range symbols {
		for _, b := range symbols {
			assert.InDelta(t, 1.0, calc.Rate(a, b)*calc.Rate(b, a), 1e-12, "%s/%s", a, b)
		}
	}
}

func TestRateUnknownSymbolUsesDefaultPrice(t *testing.T) {
	calc := newTestCalculator()

	assert.Equal(t, 3500.0, calc.Rate("ETH", "UNKNOWN"))
	assert.Equal(t, 1.0, calc.Rate("UNKNOWN", "USDC"))
}

func TestOutputNeverBeatsNominalRate(t *testing.T) {
	calc := newTestCalculator()
	amounts := []string{"0", "0.0001", "1", "10", "999", "1000", "50000", "199999", "200000", "1e9"}

	for _, a := range symbols {
		for _, b := range symbols {
			for _, amt := range amounts {
				nominal := ParseAmount(amt) * calc.Rate(a, b)
				out := calc.OutputAmount(amt, a, b)
				assert.GreaterOrEqual(t, out, 0.0)
				assert.LessOrEqual(t, out, nominal, "%s %s->%s", amt, a, b)
				if ParseAmount(amt) > 0 {
					assert.Less(t, out, nominal, "%s %s->%s", amt, a, b)
				}
			}
		}
	}
}

func TestOutputBlankAndZero(t *testing.T) {
	calc := newTestCalculator()

	assert.Equal(t, 0.0, calc.OutputAmount("0", "ETH", "USDC"))
	assert.Equal(t, 0.0, calc.OutputAmount("", "ETH", "USDC"))
}

func TestSlippageFactorSaturates(t *testing.T) {
	assert.Equal(t, 0.0, SlippageFactor(0))
	assert.InDelta(t, 0.00005, SlippageFactor(10), 1e-15)
	assert.Equal(t, 1.0, SlippageFactor(200_000))
	assert.Equal(t, 1.0, SlippageFactor(1e12))
}

func TestPriceImpactBounds(t *testing.T) {
	calc := newTestCalculator()
	amounts := []string{"0.000001", "0.5", "10", "1000", "1e6", "1e15"}

	for _, a := range symbols {
		for _, b := range symbols {
			for _, amt := range amounts {
				impact := calc.PriceImpactPercent(amt, a, b)
				assert.GreaterOrEqual(t, impact, 0.01)
				assert.LessOrEqual(t, impact, 10.0)
			}
			assert.Equal(t, 0.0, calc.PriceImpactPercent("0", a, b))
			assert.Equal(t, 0.0, calc.PriceImpactPercent("-1", a, b))
		}
	}
}

func TestPriceImpactUsesLargerSide(t *testing.T) {
	calc := newTestCalculator()

	// 10 ETH = 35000 USD; from side 35000/1e6 = 3.5%, to side 35000/(1e7*1) = 0.35%
	assert.InDelta(t, 3.5, calc.PriceImpactPercent("10", "ETH", "USDC"), 1e-9)

	// 1000 USDC -> ETH: from side 1000/1e7 = 0.01%, to side 1000/(1e6*3500) ~ 0.00003%
	assert.InDelta(t, 0.01, calc.PriceImpactPercent("1000", "USDC", "ETH"), 1e-9)
}

func TestFeeAmount(t *testing.T) {
	calc := newTestCalculator()

	for _, amt := range []float64{0.001, 1, 10, 12345.678} {
		in := FormatAmount(amt, 6)
		assert.InDelta(t, amt*0.003, calc.FeeAmount(in, "ETH"), 1e-12)
	}
	assert.Equal(t, 0.0, calc.FeeAmount("-5", "ETH"))
	assert.Equal(t, 0.0, calc.FeeAmount("", "ETH"))
}

func TestEthToUsdcScenario(t *testing.T) {
	calc := newTestCalculator()

	q := calc.Compute("10", "ETH", "USDC", 0.5)

	assert.Equal(t, 3500.0, q.Rate)
	assert.InDelta(t, 0.00005, SlippageFactor(q.InputAmount), 1e-15)
	assert.InDelta(t, 34998.25, q.OutputAmount, 1e-6)
	assert.InDelta(t, 0.03, q.FeeAmount, 1e-12)
	assert.InDelta(t, 34998.25*0.995, q.MinimumReceived, 1e-6)
	assert.Equal(t, "ETH", q.From)
	assert.Equal(t, "USDC", q.To)
}

func TestMalformedInputScenario(t *testing.T) {
	calc := newTestCalculator()

	require.NotPanics(t, func() {
		for _, a := range symbols {
			for _, b := range symbols {
				assert.Equal(t, 0.0, calc.OutputAmount("abc", a, b))
				assert.Equal(t, 0.0, calc.FeeAmount("abc", a))
				assert.Equal(t, 0.0, calc.PriceImpactPercent("abc", a, b))
			}
		}
	})

	q := calc.Compute("abc", "ETH", "USDC", 0.5)
	assert.True(t, q.IsZero())
	assert.Equal(t, 0.0, q.MinimumReceived)
}

func TestComputeIgnoresInvalidTolerance(t *testing.T) {
	calc := newTestCalculator()

	q := calc.Compute("1", "ETH", "USDC", 150)
	assert.Equal(t, 0.0, q.SlippageTolerance)
	assert.Equal(t, q.OutputAmount, q.MinimumReceived)
}

func TestImpactLevel(t *testing.T) {
	assert.Equal(t, ImpactLow, Quote{PriceImpactPercent: 0.5}.ImpactLevel())
	assert.Equal(t, ImpactMedium, Quote{PriceImpactPercent: 3.5}.ImpactLevel())
	assert.Equal(t, ImpactHigh, Quote{PriceImpactPercent: 10}.ImpactLevel())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "34998.25", FormatAmount(34998.25, 6))
	assert.Equal(t, "0.03", FormatAmount(0.03, 6))
	assert.Equal(t, "0.3333", FormatAmount(1.0/3.0, 4))
}
