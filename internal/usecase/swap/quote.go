package swap

import (
	"microlend/internal/domain/apperr"
	"microlend/internal/domain/token"

	"github.com/shopspring/decimal"
)

const precision = 18

var (
	// FeeFactor is the flat deduction applied to every swap.
	FeeFactor = decimal.RequireFromString("0.97")
	// CrossRate converts the USD stable token into the EUR one.
	CrossRate = decimal.RequireFromString("0.92")
	// SlippageFloor is the share of the estimate the router must deliver.
	SlippageFloor = decimal.RequireFromString("0.9")
)

// Estimate computes the expected output of swapping input units of from into
// to, given the native coin's price in USD stable units.
func Estimate(from, to token.Symbol, input, price decimal.Decimal) (decimal.Decimal, error) {
	if from == to {
		return decimal.Zero, apperr.Invalid("to", "must differ from the source token")
	}
	if input.IsNegative() {
		return decimal.Zero, apperr.Invalid("amount", "must not be negative")
	}
	if input.IsZero() {
		return decimal.Zero, nil
	}
	if !price.IsPositive() {
		return decimal.Zero, apperr.Invalid("price", "must be positive")
	}

	var out decimal.Decimal
	switch {
	case from == token.Native && to == token.StableUSD:
		out = input.Mul(price)
	case from == token.Native && to == token.StableEUR:
		out = input.Mul(price).Mul(CrossRate)
	case from == token.StableUSD && to == token.Native:
		out = input.DivRound(price, precision)
	case from == token.StableUSD && to == token.StableEUR:
		out = input.Mul(CrossRate)
	case from == token.StableEUR && to == token.Native:
		out = input.DivRound(price.Mul(CrossRate), precision)
	case from == token.StableEUR && to == token.StableUSD:
		out = input.DivRound(CrossRate, precision)
	default:
		return decimal.Zero, apperr.Invalid("pair", string(from)+"->"+string(to)+" is not supported")
	}
	return out.Mul(FeeFactor).Round(precision), nil
}

// MinimumOutput is the floor passed to the router.
func MinimumOutput(estimate decimal.Decimal) decimal.Decimal {
	return estimate.Mul(SlippageFloor).Round(precision)
}
