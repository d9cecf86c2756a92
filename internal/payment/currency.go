package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minor unit digits per ISO 4217 where they differ from 2
var currencyExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"JOD": 3,
}

func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToMajor converts minor units to a decimal amount in major units, e.g. 10050 INR -> 100.50.
func ToMajor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyExponent(currency))
}

// FormatMinor renders a minor-unit amount the way provider APIs expect, e.g. "100.50".
func FormatMinor(amount int64, currency string) string {
	return ToMajor(amount, currency).StringFixed(CurrencyExponent(currency))
}

func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
