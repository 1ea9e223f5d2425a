package qpay

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MinorUnits renders a decimal amount as the gateway's integer minor-unit
// string. Banker's rounding on the exact decimal value; binary floats
// never enter the conversion.
func MinorUnits(amount decimal.Decimal) string {
	return amount.Mul(hundred).RoundBank(0).String()
}
