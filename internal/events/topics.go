package events

// Topic constants for domain events emitted by the point of sale.
const (
	TopicSaleRegistered = "sale.registered"
)
