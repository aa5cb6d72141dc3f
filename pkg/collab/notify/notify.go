// Package notify defines the Sender interface for the SMS/messaging
// collaborator. Delivery is fire-and-forget: the router logs failures but
// never surfaces them to the caller, and no delivery confirmation is
// awaited.
package notify

import "context"

// Message is an outbound SMS.
type Message struct {
	// To is the recipient phone number.
	To string

	// Body is the message text.
	Body string

	// MediaURL optionally attaches media (e.g. a QR code data URL).
	MediaURL string
}

// Sender is the abstraction over the messaging backend.
// Implementations must be safe for concurrent use.
type Sender interface {
	// Send dispatches msg. Implementations should return quickly; the
	// demo contract has no delivery round-trip.
	Send(ctx context.Context, msg Message) error
}
