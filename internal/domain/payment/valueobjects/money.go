package valueobjects

import (
	"fmt"
	"strings"
)

// minorUnitDigits lists ISO-4217 currencies whose exponent is not 2.
var minorUnitDigits = map[string]int{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0,
	"KMF": 0, "KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0,
	"VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// Money is an amount in the currency's minor unit (e.g. cents for USD,
// whole yen for JPY). Amounts never cross the core as floats.
type Money struct {
	amountMinor int64
	currency    string
}

func NewMoney(amountMinor int64, currency string) Money {
	return Money{
		amountMinor: amountMinor,
		currency:    strings.ToUpper(currency),
	}
}

func (m Money) AmountMinor() int64 {
	return m.amountMinor
}

func (m Money) Currency() string {
	return m.currency
}

// Exponent returns the number of minor-unit digits for the currency.
func (m Money) Exponent() int {
	if d, ok := minorUnitDigits[m.currency]; ok {
		return d
	}
	return 2
}

// Float64 returns the amount in major units, for display only.
func (m Money) Float64() float64 {
	div := 1.0
	for i := 0; i < m.Exponent(); i++ {
		div *= 10
	}
	return float64(m.amountMinor) / div
}

func (m Money) Equals(other Money) bool {
	return m.amountMinor == other.amountMinor && m.currency == other.currency
}

func (m Money) IsPositive() bool {
	return m.amountMinor > 0
}

func (m Money) IsZero() bool {
	return m.amountMinor == 0 && m.currency == ""
}

// LessThanOrEqual reports whether m <= other. Currencies must match.
func (m Money) LessThanOrEqual(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return m.amountMinor <= other.amountMinor, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%.*f %s", m.Exponent(), m.Float64(), m.currency)
}
