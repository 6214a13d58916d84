package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// USD wraps an amount in the storefront's settlement currency.
func USD(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: currency.USD}
}
