package checkout

// State of a single checkout attempt.
type State string

const (
	StateCollectingShippingInfo State = "COLLECTING_SHIPPING_INFO"
	StateAwaitingPayment        State = "AWAITING_PAYMENT"
	StatePaymentProcessing      State = "PAYMENT_PROCESSING"
	StatePaymentSucceeded       State = "PAYMENT_SUCCEEDED"
	StatePaymentFailed          State = "PAYMENT_FAILED"
	StateOrderRecorded          State = "ORDER_RECORDED"
)

// IsTerminal reports whether the attempt is finished. A failed payment is not
// terminal: the flow returns to AWAITING_PAYMENT so the shopper can retry.
func (s State) IsTerminal() bool {
	return s == StateOrderRecorded
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}
