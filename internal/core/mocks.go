package core

import (
	"sync"
)

// MockMessage is one message captured by MockMessenger
type MockMessage struct {
	// To is the recipient nick, empty for broadcasts
	To   string
	Text string
}

// MockMessenger implements Messenger for testing by recording messages
type MockMessenger struct {
	SendErr  error
	mu       sync.RWMutex
	messages []MockMessage
}

// NewMockMessenger creates a new recording messenger
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{}
}

// SendPM records a private message
func (m *MockMessenger) SendPM(nick, message string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, MockMessage{To: nick, Text: message})
	return nil
}

// SendToAll records a broadcast
func (m *MockMessenger) SendToAll(message string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, MockMessage{Text: message})
	return nil
}

// Messages returns a copy of everything sent so far
func (m *MockMessenger) Messages() []MockMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]MockMessage, len(m.messages))
	copy(result, m.messages)
	return result
}

// MessagesTo returns the texts of private messages sent to nick
func (m *MockMessenger) MessagesTo(nick string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, msg := range m.messages {
		if msg.To == nick {
			out = append(out, msg.Text)
		}
	}
	return out
}

// Reset drops the recorded messages
func (m *MockMessenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
