// Package money converts between decimal major-unit amounts and the integer
// minor units (cents) that balances and ledger entries are stored in.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const scale = 2

var ErrInvalidAmount = errors.New("money: invalid amount")

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinorUnits rounds to two places, half away from zero, and shifts into
// minor units. This is the only place a major amount is rounded.
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	minor := d.Round(scale).Shift(scale)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return minor.IntPart(), nil
}

// ToPositiveMinorUnits is ToMinorUnits for amounts that must end up > 0 after rounding.
func ToPositiveMinorUnits(d decimal.Decimal) (int64, error) {
	minor, err := ToMinorUnits(d)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, d.String())
	}
	return minor, nil
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -scale)
}

// Format renders minor units with exactly two decimal places.
func Format(minor int64) string {
	return FromMinorUnits(minor).StringFixed(scale)
}
