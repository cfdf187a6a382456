package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is assumed whenever the backend omits a currency code.
const DefaultCurrency = "USD"

const minorUnitsPerMajor = 100

// ErrInvalidAmount indicates a monetary value could not be parsed.
var ErrInvalidAmount = errors.New("domain: invalid monetary amount")

// Money is an exact currency amount held in integer minor units (cents).
// The backend's JSON speaks in major units; Money converts on the boundary so
// no binary floating-point accumulation ever reaches cart arithmetic.
type Money struct {
	Minor    int64
	Currency string
}

// NewMoney builds a Money from minor units.
func NewMoney(minor int64, code string) Money {
	return Money{Minor: minor, Currency: normaliseCurrency(code)}
}

// MoneyFromMajor converts a major-unit float (display representation) to
// Money, rounding half away from zero to the nearest minor unit.
func MoneyFromMajor(major float64, code string) Money {
	scaled := major * minorUnitsPerMajor
	var minor int64
	if scaled >= 0 {
		minor = int64(math.Floor(scaled + 0.5))
	} else {
		minor = int64(math.Ceil(scaled - 0.5))
	}
	return Money{Minor: minor, Currency: normaliseCurrency(code)}
}

// ParseMoney parses a decimal string such as "149.99" without passing through
// binary floating point.
func ParseMoney(value string, code string) (Money, error) {
	minor, err := parseMinor(value)
	if err != nil {
		return Money{}, err
	}
	return Money{Minor: minor, Currency: normaliseCurrency(code)}, nil
}

// Add returns the exact sum of two amounts. Currencies must match; an empty
// currency is treated as the default.
func (m Money) Add(other Money) (Money, error) {
	a := m.currencyOrDefault()
	b := other.currencyOrDefault()
	if a != b {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", ErrInvalidAmount, b, a)
	}
	return Money{Minor: m.Minor + other.Minor, Currency: a}, nil
}

// Mul returns the amount multiplied by an integer quantity.
func (m Money) Mul(quantity int) Money {
	return Money{Minor: m.Minor * int64(quantity), Currency: m.currencyOrDefault()}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Minor == 0 }

// Major returns the major-unit float representation for display only.
func (m Money) Major() float64 {
	return float64(m.Minor) / minorUnitsPerMajor
}

// String renders the amount as a plain decimal, e.g. "149.99".
func (m Money) String() string {
	minor := m.Minor
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/minorUnitsPerMajor, minor%minorUnitsPerMajor)
}

// Format renders the amount with its currency symbol for the given language,
// e.g. "$149.99" for English.
func (m Money) Format(lang language.Tag) string {
	unit, err := currency.ParseISO(m.currencyOrDefault())
	if err != nil {
		return m.String()
	}
	p := message.NewPrinter(lang)
	return p.Sprint(currency.NarrowSymbol(unit.Amount(m.Major())))
}

// MarshalJSON emits the major-unit decimal number used by the backend wire
// format.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a major-unit JSON number (or a quoted decimal) and
// converts it exactly to minor units.
func (m *Money) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	text = strings.Trim(text, `"`)
	minor, err := parseMinor(text)
	if err != nil {
		return err
	}
	m.Minor = minor
	return nil
}

func (m Money) currencyOrDefault() string {
	return normaliseCurrency(m.Currency)
}

func normaliseCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return code
}

func parseMinor(value string) (int64, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	negative := false
	switch text[0] {
	case '-':
		negative = true
		text = text[1:]
	case '+':
		text = text[1:]
	}

	intPart := text
	fracPart := ""
	if idx := strings.IndexAny(text, ".eE"); idx >= 0 {
		if text[idx] == 'e' || text[idx] == 'E' {
			// Scientific notation never appears in the price feeds; reject it
			// rather than risk an inexact conversion.
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		intPart = text[:idx]
		fracPart = text[idx+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if intPart == "" {
		intPart = "0"
	}

	var minor int64
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		minor = minor*10 + int64(r-'0')
	}
	minor *= minorUnitsPerMajor

	// Two decimal places carry exactly; a third digit rounds half up.
	frac := int64(0)
	for i, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		digit := int64(r - '0')
		switch i {
		case 0:
			frac += digit * 10
		case 1:
			frac += digit
		case 2:
			if digit >= 5 {
				frac++
			}
		}
	}
	minor += frac

	if negative {
		minor = -minor
	}
	return minor, nil
}

// SumLineTotals computes the exact total over cart items, computed fresh on
// every call. The first priced item fixes the total's currency; entries in a
// different currency are excluded rather than mixed into the sum.
func SumLineTotals(items []CartItem) Money {
	total := Money{Currency: DefaultCurrency}
	seeded := false
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		line := item.LineTotal()
		if !seeded {
			total.Currency = line.currencyOrDefault()
			seeded = true
		}
		sum, err := total.Add(line)
		if err != nil {
			continue
		}
		total = sum
	}
	return total
}
