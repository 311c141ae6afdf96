package notify

import (
	"context"
	"sync"
)

// MockSender records every notification for assertion in tests.
type MockSender struct {
	SendFunc func(ctx context.Context, msg Message) error

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*MockSender)(nil)

func (m *MockSender) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}

// Sent returns a copy of every recorded message.
func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// SentWith returns the recorded messages carrying event.
func (m *MockSender) SentWith(event Event) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.sent {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}
