package chathub

import "talkbuddy/backend/internal/models"

// Client is the interface for one connected user. It abstracts the
// underlying transport so the hub can manage different client types
// uniformly.
type Client interface {
	// GetUserID returns the anonymous id the connection authenticated as.
	GetUserID() string

	// GetSendChannel returns the channel the hub pushes events into.
	// It is a send-only channel.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps.
	Run()

	// Close shuts down the client's connection and channels.
	Close()
}
