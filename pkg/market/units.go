package market

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimals of native EVM balances
const EtherDecimals = 18

// FromBaseUnits converts an integer amount in base units (wei for ether) into a
// decimal token amount
func FromBaseUnits(amount *big.Int, decimals int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, int32(-decimals))
}

// FormatUnits renders a base unit amount with at most places decimals
func FormatUnits(amount *big.Int, decimals int, places int32) string {
	return FromBaseUnits(amount, decimals).Round(places).String()
}

// ParseBaseUnits parses a decimal string of base units, as block explorers return
// them. Invalid input yields zero.
func ParseBaseUnits(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
