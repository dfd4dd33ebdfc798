// Package money parses user-entered amounts and renders amounts for display.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

var thousands = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d*)?$`)

// Parse reads a positive amount with at most two fractional digits.
// A leading currency sign and thousands separators are accepted. A comma
// anywhere else, such as a decimal comma in "12,50", is rejected.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$¥€£")
	if strings.Contains(s, ",") {
		if !thousands.MatchString(s) {
			return 0, fmt.Errorf("%w: misplaced comma in %q", ErrInvalidAmount, s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}

	return d.InexactFloat64(), nil
}

// Format renders v with exactly two decimal places.
func Format(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Cents rounds v to integer minor units.
func Cents(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(hundred).Round(0).IntPart()
}
