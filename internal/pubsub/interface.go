package pubsub

// Publisher sends domain events to subscribers outside this service.
type Publisher interface {
	SendMessage(topic EventType, data any) error
}
