// Package money holds the fixed-point helpers shared by the ledger and the
// balance calculator. All amounts are shopspring decimals in a
// currency-agnostic unit with cents as the smallest settled quantity.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon is the absolute tolerance used instead of exact equality when
// comparing amounts. It absorbs rounding remainders from uneven splits.
var Epsilon = decimal.New(1, -2)

// Cent is the smallest unit handed out when distributing a remainder.
var Cent = decimal.New(1, -2)

// Places is the number of fractional digits amounts are rounded to for display.
const Places = 2

// Sum adds up the values of an amount map.
func Sum(amounts map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// IsZero reports whether |a| <= Epsilon.
func IsZero(a decimal.Decimal) bool {
	return a.Abs().LessThanOrEqual(Epsilon)
}

// Within reports whether a and b differ by at most Epsilon.
func Within(a, b decimal.Decimal) bool {
	return IsZero(a.Sub(b))
}

// Format renders an amount with two fractional digits.
func Format(a decimal.Decimal) string {
	return a.StringFixed(Places)
}

// Parse reads a decimal amount from user input.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
