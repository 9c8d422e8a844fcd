package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// AmericanToDecimal converts American odds to decimal odds.
//
//	+150 → 2.50
//	-120 → 1.8333
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("%w: american price cannot be 0", ErrInvalidOdds)
	}
	if american > 0 {
		return float64(american)/100 + 1, nil
	}
	return 100/math.Abs(float64(american)) + 1, nil
}

// DecimalToAmerican is the inverse of AmericanToDecimal, rounded to the nearest
// integer. Even money (2.0) is always +100.
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1 || math.IsNaN(dec) || math.IsInf(dec, 0) {
		return 0, fmt.Errorf("%w: decimal odds must be > 1, got %v", ErrInvalidOdds, dec)
	}
	if dec >= 2 {
		return int(math.Round((dec - 1) * 100)), nil
	}
	return int(math.Round(-100 / (dec - 1))), nil
}

// Payout is the total returned on a winning wager: stake × decimal odds,
// rounded to cents.
func Payout(stake decimal.Decimal, american int) (decimal.Decimal, error) {
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return decimal.Zero, err
	}
	return stake.Mul(decimal.NewFromFloat(dec)).Round(2), nil
}

// CombinedPrice multiplies the decimal odds of every leg and converts the
// product back to a single American price.
func CombinedPrice(prices []int) (int, error) {
	if len(prices) < 2 {
		return 0, ErrTooFewLegs
	}
	product := 1.0
	for _, p := range prices {
		dec, err := AmericanToDecimal(p)
		if err != nil {
			return 0, err
		}
		product *= dec
	}
	return DecimalToAmerican(product)
}

// ParlayPayout returns the payout of a combination wager and the combined
// American price it was computed at. Fewer than two legs is a contract
// violation and returns ErrTooFewLegs instead of a single-wager result.
func ParlayPayout(stake decimal.Decimal, prices []int) (decimal.Decimal, int, error) {
	combined, err := CombinedPrice(prices)
	if err != nil {
		return decimal.Zero, 0, err
	}
	payout, err := Payout(stake, combined)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return payout, combined, nil
}

// Profit = payout - stake.
func Profit(payout, stake decimal.Decimal) decimal.Decimal {
	return payout.Sub(stake)
}
