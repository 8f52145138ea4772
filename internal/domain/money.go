package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency used for every amount displayed to the user.
const Currency = money.USD

var hundred = decimal.NewFromInt(100)

// FormatMoney renders an amount as "$1,234.50", rounding to cents.
func FormatMoney(d decimal.Decimal) string {
	cents := d.Mul(hundred).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}

// FormatPercent renders a fraction as a whole-number percentage, "75%".
func FormatPercent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).Round(0).String() + "%"
}
