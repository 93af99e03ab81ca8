// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderLine is one booked service inside an OrderPlacedEvent.
type OrderLine struct {
	BookingID   string `json:"booking_id"`
	ServiceType string `json:"service_type"`
	ScheduledAt string `json:"scheduled_at"`
	Total       string `json:"total"`
}

// OrderPlacedEvent is published after a checkout transaction commits.
// It carries enough information for downstream consumers to notify
// customers and providers or feed analytics without querying the
// primary database.
type OrderPlacedEvent struct {
	UserID   uint64      `json:"user_id"`
	CartID   string      `json:"cart_id"`
	Lines    []OrderLine `json:"lines"`
	PlacedAt string      `json:"placed_at"`
}
