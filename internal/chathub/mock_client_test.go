package chathub_test

import (
	"sync"

	"brokerdesk/backend/internal/models"

	"github.com/google/uuid"
)

// mockClient is an in-memory Client whose RecvChannel lets tests observe
// exactly what a connection would have been sent.
type mockClient struct {
	connID string
	userID string
	role   string

	mu     sync.Mutex
	roomID string

	RecvChannel chan models.ChatMessage
	RecvEvents  chan models.Event
	ranPumps    bool
	closed      bool
}

func newMockClient(userID, role string) *mockClient {
	return &mockClient{
		connID:      uuid.New().String(),
		userID:      userID,
		role:        role,
		RecvChannel: make(chan models.ChatMessage, 16),
		RecvEvents:  make(chan models.Event, 16),
	}
}

func (c *mockClient) ConnID() string { return c.connID }
func (c *mockClient) UserID() string { return c.userID }
func (c *mockClient) Role() string   { return c.role }

func (c *mockClient) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *mockClient) SetRoomID(id string) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

func (c *mockClient) SendChannel() chan<- models.ChatMessage { return c.RecvChannel }

func (c *mockClient) SendEvent(ev models.Event) {
	select {
	case c.RecvEvents <- ev:
	default:
	}
}

func (c *mockClient) Run() { c.ranPumps = true }

func (c *mockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.RecvChannel)
	}
}

func (c *mockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// receivedEvents drains every connection-local frame currently buffered.
func (c *mockClient) receivedEvents() []models.Event {
	var out []models.Event
	for {
		select {
		case ev := <-c.RecvEvents:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// received drains everything currently buffered for the client.
func (c *mockClient) received() []models.ChatMessage {
	var out []models.ChatMessage
	for {
		select {
		case msg := <-c.RecvChannel:
			out = append(out, msg)
		default:
			return out
		}
	}
}
