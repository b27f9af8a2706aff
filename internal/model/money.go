package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Money is an amount in euro cents. Integer cents keep breakdown sums exact.
type Money int64

// Euros builds a Money from a euro amount, rounding half away from zero.
func Euros(v float64) Money {
	return Money(math.Round(v * 100))
}

// Euros returns the amount in euros.
func (m Money) Euros() float64 {
	return float64(m) / 100
}

// MulFloat multiplies by a float factor (km, hours) and rounds to the cent.
// Results outside the int64 range saturate.
func (m Money) MulFloat(f float64) Money {
	v := math.Round(float64(m) * f)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return Money(v)
}

// String formats the amount as "55.00".
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseMoney parses a decimal euro string: "55", "55.5", "55,50", "1e2".
// Amounts are rounded half away from zero to the cent.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, fmt.Errorf("money: bad %q: %w", s, err)
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("money: %q out of range", s)
	}
	return Money(cents.IntPart()), nil
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseMoney(node.Value)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
