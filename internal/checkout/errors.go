package checkout

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to check out")
	ErrInvalidTransition = errors.New("illegal checkout state transition")
	ErrAlreadyRecorded   = errors.New("checkout already recorded an order")
)

// ValidationError blocks the shipping-info transition and is shown inline to
// the shopper; it never aborts the attempt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// PaymentError wraps a provider failure. The attempt stays retryable: cart
// and shipping info are untouched.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string { return "payment failed: " + e.Err.Error() }
func (e *PaymentError) Unwrap() error { return e.Err }
