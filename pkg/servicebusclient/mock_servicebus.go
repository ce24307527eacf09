package servicebusclient

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockServiceBusClient is an in-memory ServiceBusClient for local runs and tests.
type MockServiceBusClient struct {
	mu     sync.RWMutex
	queues map[string][]Message
	seq    int
	err    error
}

// NewMockServiceBusClient creates a new mock Service Bus client.
func NewMockServiceBusClient() *MockServiceBusClient {
	return &MockServiceBusClient{
		queues: make(map[string][]Message),
	}
}

// FailWith makes every subsequent Send return err.
func (m *MockServiceBusClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Send appends the message to the named queue.
func (m *MockServiceBusClient) Send(ctx context.Context, queueOrTopicName string, body []byte, opts ...SendOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	sendOptions := applyOptions(opts)
	m.seq++
	messageID := sendOptions.MessageID
	if messageID == "" {
		messageID = fmt.Sprintf("mock-msg-%d", m.seq)
	}

	m.queues[queueOrTopicName] = append(m.queues[queueOrTopicName], Message{
		ID:          messageID,
		Body:        body,
		ContentType: sendOptions.ContentType,
		Properties:  sendOptions.Properties,
		EnqueuedAt:  time.Now(),
	})

	return messageID, nil
}

// Messages returns a copy of the messages sent to a queue.
func (m *MockServiceBusClient) Messages(queueOrTopicName string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Message(nil), m.queues[queueOrTopicName]...)
}
