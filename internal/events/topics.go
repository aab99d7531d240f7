package events

// Topics emitted by the cart.
const (
	TopicCartRepriced    = "cart.repriced"
	TopicCartLineEvicted = "cart.line_evicted"
)

// DefaultTopics returns the topics forwarded to the message broker.
func DefaultTopics() []string {
	return []string{TopicCartRepriced, TopicCartLineEvicted}
}
