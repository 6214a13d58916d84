package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Payment struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId"`
	PayerEmail    string `json:"payerEmail,omitempty"`
}

// Order is the immutable record of a completed purchase. Only Submitted may
// change after the order has been recorded.
type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Customer  Customer        `json:"customer"`
	Items     []CartItem      `json:"items"`
	Payment   Payment         `json:"payment"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	Date      time.Time       `json:"date"`
	Submitted bool            `json:"submitted"`
}
