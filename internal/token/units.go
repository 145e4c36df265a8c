package token

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders raw / 10^decimals as an exact decimal string with no
// exponent and no trailing fractional zeros.
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
