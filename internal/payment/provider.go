// Package payment abstracts the external payment processor behind a result
// returning interface so the checkout flow can be exercised against a fake.
package payment

import (
	"context"
	"errors"

	"github.com/artgallery/storefront/internal/domain"
	"github.com/artgallery/storefront/internal/pricing"
)

var ErrDeclined = errors.New("payment declined by provider")

// Request carries everything the provider needs to present and settle the
// purchase: the line items and the already-computed breakdown.
type Request struct {
	Description string
	Items       []domain.CartItem
	Totals      pricing.Totals
	Currency    string
}

// CaptureResult is the provider's answer to a capture attempt. Status is the
// provider's own vocabulary ("COMPLETED", "DECLINED", ...).
type CaptureResult struct {
	TransactionID string
	PayerEmail    string
	Status        string
}

func (r CaptureResult) Completed() bool {
	return r.Status == "COMPLETED"
}

type Provider interface {
	// CreateOrder registers the purchase with the provider and returns the
	// provider-side order id.
	CreateOrder(ctx context.Context, req Request) (string, error)
	// CaptureOrder settles a previously created order.
	CaptureOrder(ctx context.Context, orderID string) (CaptureResult, error)
}
