package events

// Topic constants for domain events emitted by the order core.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicOrderCancelled     = "order.cancelled"
	TopicPaymentEvent       = "order.payment_event"
	TopicCartDeactivated    = "cart.deactivated"
)

// DefaultTopics returns the canonical list of topics notifiers may subscribe to.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicOrderCancelled,
		TopicPaymentEvent,
		TopicCartDeactivated,
	}
}
