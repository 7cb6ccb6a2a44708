package order

import "fmt"

// statusRank orders the happy path PENDING → DELIVERED. Terminal failure
// states sit outside the rank table and are reachable from any non-terminal
// state.
var statusRank = map[Status]int{
	StatusPending:          0,
	StatusProcessing:       1,
	StatusConfirmed:        2,
	StatusPreparing:        3,
	StatusReadyForShipping: 4,
	StatusShipped:          5,
	StatusInTransit:        6,
	StatusOutForDelivery:   7,
	StatusDelivered:        8,
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// CanTransition validates an order status change. The happy path moves
// monotonically forward; CANCELLED, REFUNDED and FAILED are reachable from
// any non-terminal state.
func CanTransition(from, to Status) error {
	if from.Terminal() {
		return fmt.Errorf("%w: status is %s", ErrOrderClosed, from)
	}
	switch to {
	case StatusCancelled, StatusRefunded, StatusFailed:
		return nil
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	toRank, ok := statusRank[to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if toRank <= fromRank {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// paymentNext enumerates the permitted payment status transitions.
var paymentNext = map[PaymentStatus][]PaymentStatus{
	PaymentPending:           {PaymentAuthorized, PaymentCaptured, PaymentFailed, PaymentCancelled},
	PaymentAuthorized:        {PaymentCaptured, PaymentFailed, PaymentCancelled},
	PaymentCaptured:          {PaymentPartiallyRefunded, PaymentRefunded},
	PaymentPartiallyRefunded: {PaymentRefunded},
}

// CanTransitionPayment validates a payment status change.
func CanTransitionPayment(from, to PaymentStatus) error {
	for _, allowed := range paymentNext[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, from, to)
}

// Cascade describes an order status change automatically derived from a
// payment event.
type Cascade struct {
	Status Status
	Note   string
}

// DeriveCascade returns the automatic order status change implied by a
// payment transition, if any. Payment capture auto-confirms a pending order;
// a full refund forces the order into REFUNDED.
func DeriveCascade(orderStatus Status, payment PaymentStatus) (Cascade, bool) {
	switch payment {
	case PaymentCaptured:
		if orderStatus == StatusPending {
			return Cascade{Status: StatusConfirmed, Note: "Payment confirmed, order auto-confirmed"}, true
		}
	case PaymentRefunded:
		if orderStatus != StatusRefunded {
			return Cascade{Status: StatusRefunded, Note: "Order refunded"}, true
		}
	}
	return Cascade{}, false
}
