// Package units holds the decimal and date conversions shared by the
// entity builders.
package units

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the precision used when an amount has no token
// attached to it (rates, virtual prices, underlying balances).
const DefaultDecimals = 18

// ScaleDecimal converts a raw integer amount into a decimal scaled by
// 10^decimals. The coefficient is carried as a big integer, so the full
// precision of the source value survives the conversion.
func ScaleDecimal(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// Unscale reconstructs the raw integer amount from a scaled decimal.
func Unscale(value decimal.Decimal, decimals int32) *big.Int {
	return value.Shift(decimals).BigInt()
}

// FormatDate renders a Unix timestamp as a UTC date string. The string is
// a display field only; bucket identity always uses the numeric timestamp.
func FormatDate(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}
