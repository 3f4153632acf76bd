package notify

import "context"

// Channel delivers messages to a user over one transport.
type Channel interface {
	// Name identifies the channel in configuration and metrics.
	Name() string
	// Ready reports whether the channel can deliver messages.
	Ready(ctx context.Context) error
	// Send delivers a message to the user.
	Send(ctx context.Context, userID int64, msg Message) error
}
