// Package checkout coordinates one purchase attempt: collect shipping info,
// settle payment with the external provider, record the order, clear the cart.
package checkout

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/currency"

	"github.com/artgallery/storefront/internal/domain"
	"github.com/artgallery/storefront/internal/payment"
	"github.com/artgallery/storefront/internal/pricing"
)

type CartStore interface {
	Items(ctx context.Context) ([]domain.CartItem, error)
	Clear(ctx context.Context) error
}

type OrderHistory interface {
	Append(ctx context.Context, o domain.Order) error
}

// Flow is a single checkout attempt. It is created when the shopper enters
// checkout and is done once an order has been recorded; a new purchase needs
// a new Flow over a fresh cart.
type Flow struct {
	mu        sync.Mutex
	state     State
	customer  domain.Customer
	cart      CartStore
	history   OrderHistory
	provider  payment.Provider
	customers *CustomerStore // optional, pre-fills and remembers shipping info
	order     *domain.Order
}

func NewFlow(cart CartStore, history OrderHistory, provider payment.Provider, customers *CustomerStore) *Flow {
	f := &Flow{
		state:     StateCollectingShippingInfo,
		cart:      cart,
		history:   history,
		provider:  provider,
		customers: customers,
	}
	if customers != nil {
		if c, err := customers.Load(context.Background()); err == nil {
			f.customer = c
		}
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Customer() domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customer
}

// Order returns the recorded order, if the flow got that far.
func (f *Flow) Order() (domain.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return domain.Order{}, false
	}
	return *f.order, true
}

func validateCustomer(c domain.Customer) error {
	required := []struct{ field, value string }{
		{"name", c.Name},
		{"email", c.Email},
		{"address", c.Address},
		{"city", c.City},
		{"postalCode", c.PostalCode},
		{"country", c.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	if !strings.Contains(c.Email, "@") {
		return &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	return nil
}

// SubmitShippingInfo validates and stores the customer fields and moves the
// flow to AWAITING_PAYMENT. Invalid input keeps the current state. Shipping
// info may be resubmitted any time before payment succeeds.
func (f *Flow) SubmitShippingInfo(ctx context.Context, c domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateCollectingShippingInfo, StateAwaitingPayment:
	default:
		return fmt.Errorf("%w: submit shipping info in %s", ErrInvalidTransition, f.state)
	}
	if err := validateCustomer(c); err != nil {
		return err
	}

	f.customer = c
	f.state = StateAwaitingPayment
	if f.customers != nil {
		// Remembering the shipper for next time is best effort, never a
		// reason to block the purchase.
		if err := f.customers.Save(ctx, c); err != nil {
			log.Printf("[checkout] save customer info: %v", err)
		}
	}
	return nil
}

// Pay runs the payment leg: create the provider order, capture it, then
// record the order and clear the cart. A provider failure puts the flow back
// in AWAITING_PAYMENT with cart and shipping info untouched. A history write
// failure after capture is fatal for the attempt and is not retried here.
func (f *Flow) Pay(ctx context.Context) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateAwaitingPayment:
	case StateOrderRecorded:
		return domain.Order{}, ErrAlreadyRecorded
	default:
		return domain.Order{}, fmt.Errorf("%w: pay in %s", ErrInvalidTransition, f.state)
	}

	items, err := f.cart.Items(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}
	totals := pricing.Calculate(items)

	f.state = StatePaymentProcessing

	req := payment.Request{
		Description: "Purchase from Art Store",
		Items:       items,
		Totals:      totals,
		Currency:    currency.USD.String(),
	}
	orderID, err := f.provider.CreateOrder(ctx, req)
	if err != nil {
		f.state = StateAwaitingPayment
		return domain.Order{}, &PaymentError{Err: err}
	}
	capture, err := f.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		f.state = StateAwaitingPayment
		return domain.Order{}, &PaymentError{Err: err}
	}
	if !capture.Completed() {
		f.state = StateAwaitingPayment
		return domain.Order{}, &PaymentError{Err: fmt.Errorf("capture status %s", capture.Status)}
	}

	f.state = StatePaymentSucceeded

	order := domain.Order{
		ID:       orderID,
		Status:   capture.Status,
		Customer: f.customer,
		Items:    items,
		Payment: domain.Payment{
			Method:        "PayPal",
			TransactionID: capture.TransactionID,
			PayerEmail:    capture.PayerEmail,
		},
		Subtotal: totals.ItemsPrice,
		Shipping: totals.ShippingPrice,
		Tax:      totals.TaxPrice,
		Total:    totals.TotalPrice,
		Date:     time.Now().UTC(),
	}

	if err := f.history.Append(ctx, order); err != nil {
		// Payment is captured but the order is not durably recorded. The
		// cart is left intact so nothing is silently lost.
		return domain.Order{}, fmt.Errorf("record order: %w", err)
	}
	if err := f.cart.Clear(ctx); err != nil {
		// The order is recorded; a stale cart is an annoyance, not data loss.
		log.Printf("[checkout] clear cart after order %s: %v", order.ID, err)
	}

	f.order = &order
	f.state = StateOrderRecorded
	return order, nil
}
