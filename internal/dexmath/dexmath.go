package dexmath

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ZeroBD = decimal.Zero
	OneBD  = decimal.NewFromInt(1)

	ten = decimal.NewFromInt(10)
)

func init() {
	// The default 16 fractional digits lose tick-level price resolution;
	// 34 matches the precision the stored aggregates were produced with.
	if decimal.DivisionPrecision < 34 {
		decimal.DivisionPrecision = 34
	}
}

// ExponentToBigDecimal returns 10^decimals, built by repeated multiplication.
func ExponentToBigDecimal(decimals int32) decimal.Decimal {
	bd := OneBD
	for i := int32(0); i < decimals; i++ {
		bd = bd.Mul(ten)
	}
	return bd
}

// SafeDiv returns 0 when the denominator is 0. Every division in the engine
// routes through this; the silent zero is defined behavior, not a fallback.
func SafeDiv(amount0, amount1 decimal.Decimal) decimal.Decimal {
	if amount1.IsZero() {
		return decimal.Zero
	}
	return amount0.Div(amount1)
}

// ConvertTokenToDecimal scales a raw on-chain integer amount down by the
// token's decimals.
func ConvertTokenToDecimal(tokenAmount *big.Int, exchangeDecimals int32) decimal.Decimal {
	if tokenAmount == nil {
		return decimal.Zero
	}
	amount := decimal.NewFromBigInt(tokenAmount, 0)
	if exchangeDecimals == 0 {
		return amount
	}
	return amount.Div(ExponentToBigDecimal(exchangeDecimals))
}

// BigDecimalExponated raises value to an integer power by repeated
// multiplication. Negative powers are the reciprocal of the positive result.
// Tick exponents are small integers, so the naive loop is fine.
func BigDecimalExponated(value decimal.Decimal, power int64) decimal.Decimal {
	if power == 0 {
		return OneBD
	}
	negativePower := power < 0
	if negativePower {
		power = -power
	}
	result := value
	for i := int64(1); i < power; i++ {
		result = result.Mul(value)
	}
	if negativePower {
		result = SafeDiv(OneBD, result)
	}
	return result
}
