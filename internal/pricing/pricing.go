// Package pricing derives the checkout price breakdown from cart lines.
// Calculate is pure: no storage, no network, same lines in, same totals out.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/artgallery/storefront/internal/domain"
)

// Business policy. Shipping is free only strictly above the threshold: a
// $100.00 cart still pays the flat fee.
var (
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShippingFee       = decimal.NewFromInt(10)

	// TaxRate is the single canonical rate. The storefront historically
	// showed 8% in one summary view and charged 7% at the point of sale;
	// the charged rate wins.
	TaxRate = decimal.NewFromFloat(0.07)
)

type Totals struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

func Calculate(items []domain.CartItem) Totals {
	itemsPrice := decimal.Zero
	for _, it := range items {
		itemsPrice = itemsPrice.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	shipping := FlatShippingFee
	if itemsPrice.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := itemsPrice.Mul(TaxRate)

	return Totals{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    itemsPrice.Add(shipping).Add(tax),
	}
}
