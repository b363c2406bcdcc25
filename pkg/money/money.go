package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a Money value carries no currency code.
const DefaultCurrency = "BRL"

var ErrInvalidAmount = errors.New("invalid money amount")

// Money is an amount in the smallest currency unit (centavos for BRL).
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// New returns Money for a minor-unit amount.
func New(amount int64, cur string) Money {
	if cur == "" {
		cur = DefaultCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(cur)}
}

// FromFloat converts a major-unit value (49.90) to Money, rounding to the nearest minor unit.
func FromFloat(v float64, cur string) Money {
	return New(int64(math.Round(v*100)), cur)
}

// Parse reads a decimal string such as "49.90" or "49,90".
func Parse(s, cur string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, errors.Join(ErrInvalidAmount, err)
	}
	return FromFloat(v, cur), nil
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }

// Float returns the amount in major units.
func (m Money) Float() float64 {
	return float64(m.Amount) / 100
}

// String renders the plain decimal amount ("49.90"), without symbol.
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// Format renders the amount with the currency symbol using the conventions of
// tag, e.g. "R$ 49,90" for pt-BR. Unknown currency codes fall back to
// "<CODE> <amount>".
func (m Money) Format(tag language.Tag) string {
	cur := m.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return cur + " " + m.String()
	}
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(m.Float())))
}

// FormatBR is Format with Brazilian Portuguese conventions.
func (m Money) FormatBR() string {
	return m.Format(language.BrazilianPortuguese)
}
