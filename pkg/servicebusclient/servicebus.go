package servicebusclient

import (
	"context"
	"time"
)

// ServiceBusClient publishes notifications about finished exports.
type ServiceBusClient interface {
	// Send sends a message to a queue or topic.
	Send(ctx context.Context, queueOrTopicName string, body []byte, opts ...SendOption) (messageID string, err error)
}

// Message is a sent message, as kept by the mock client.
type Message struct {
	ID          string
	Body        []byte
	ContentType string
	Properties  map[string]interface{}
	EnqueuedAt  time.Time
}

// SendOption represents optional parameters for send operations.
type SendOption func(*SendOptions)

// SendOptions contains options for send operations.
type SendOptions struct {
	ContentType string
	Properties  map[string]interface{}
	MessageID   string
}

// WithContentType sets the content type for a message.
func WithContentType(contentType string) SendOption {
	return func(opts *SendOptions) {
		opts.ContentType = contentType
	}
}

// WithProperties sets custom properties for a message.
func WithProperties(properties map[string]interface{}) SendOption {
	return func(opts *SendOptions) {
		opts.Properties = properties
	}
}

// WithMessageID sets a custom message ID.
func WithMessageID(messageID string) SendOption {
	return func(opts *SendOptions) {
		opts.MessageID = messageID
	}
}

func applyOptions(opts []SendOption) *SendOptions {
	sendOptions := &SendOptions{}
	for _, opt := range opts {
		opt(sendOptions)
	}
	return sendOptions
}
