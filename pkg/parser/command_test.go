package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		input  string
		amount string
		from   string
		to     string
	}{
		{"swap 1 ETH to USDC", "1", "ETH", "USDC"},
		{"1.5 weth for dai", "1.5", "WETH", "DAI"},
		{"  100   usdc ->  eth ", "100", "USDC", "ETH"},
		{".5 ETH => USDT", ".5", "ETH", "USDT"},
		{"Swap 2 btc to ether", "2", "WBTC", "ETH"},
		{"10eth to usdc", "10", "ETH", "USDC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, err := ParseSwapCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, req.Amount)
			assert.Equal(t, tt.from, req.SourceToken)
			assert.Equal(t, tt.to, req.DestToken)
		})
	}
}

func TestParseSwapCommandInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"swap",
		"ETH to USDC",
		"1 ETH USDC",
		"-1 ETH to USDC",
		"1 ETH to",
		"1,5 ETH to USDC",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSwapCommand(input)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "ETH", NormalizeTokenSymbol(" ether "))
	assert.Equal(t, "WBTC", NormalizeTokenSymbol("btc"))
	assert.Equal(t, "MATIC", NormalizeTokenSymbol("pol"))
	assert.Equal(t, "LINK", NormalizeTokenSymbol("link"))
}
