package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPriceLength caps the textual form of a price. It comfortably fits
// MaxPrice with sign and separators.
const MaxPriceLength = 20

// maxPriceDigits bounds both the coefficient and the exponent of a price
// decoded from outside input.
const maxPriceDigits = 20

// MaxPrice is the largest amount a NUMERIC(12,2) column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// ErrInvalidPrice is returned for amounts that are malformed or out of range.
var ErrInvalidPrice = errors.New("invalid price")

// ParsePrice reads a plain decimal amount such as "19.90". Exponent notation
// and overlong input are refused before decimal parsing sees them; comparing
// or printing "1e100000000" expands a hundred-million-digit integer.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxPriceLength || strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %.32q", ErrInvalidPrice, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %.32q", ErrInvalidPrice, s)
	}
	return d, nil
}

// CheckPrice verifies that an already decoded amount is non-negative, not
// above MaxPrice and has at most two decimal places. The digit bounds are
// checked first so the comparison never rescales a huge exponent.
func CheckPrice(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp > maxPriceDigits || exp < -maxPriceDigits || d.NumDigits() > maxPriceDigits {
		return fmt.Errorf("%w: too many digits", ErrInvalidPrice)
	}
	switch {
	case d.IsNegative():
		return fmt.Errorf("%w: must not be negative", ErrInvalidPrice)
	case d.GreaterThan(MaxPrice):
		return fmt.Errorf("%w: above %s", ErrInvalidPrice, MaxPrice)
	case !d.Equal(d.Round(2)):
		return fmt.Errorf("%w: more than two decimal places", ErrInvalidPrice)
	}
	return nil
}
