package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"brokerdesk/backend/internal/config"
	"brokerdesk/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// WebSocketClient implements Client over a gorilla websocket connection.
// Identity is fixed at construction, after the upgrade handler has resolved
// it; the pumps never trust identity fields from inbound payloads.
type WebSocketClient struct {
	connID string
	userID string
	role   string

	mu     sync.Mutex
	roomID string

	Conn *websocket.Conn
	Hub  *Manager

	// Send carries broadcast messages from the registry; events carries
	// connection-local error frames back to this participant only.
	Send   chan models.ChatMessage
	events chan models.Event

	closeOnce sync.Once
}

func NewWebSocketClient(hub *Manager, conn *websocket.Conn, userID, role string) *WebSocketClient {
	return &WebSocketClient{
		connID: uuid.New().String(),
		userID: userID,
		role:   role,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.ChatMessage, config.ClientSendBuffer),
		events: make(chan models.Event, 16),
	}
}

func (c *WebSocketClient) ConnID() string { return c.connID }
func (c *WebSocketClient) UserID() string { return c.userID }
func (c *WebSocketClient) Role() string   { return c.role }

func (c *WebSocketClient) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *WebSocketClient) SetRoomID(id string) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

func (c *WebSocketClient) SendChannel() chan<- models.ChatMessage { return c.Send }

// SendEvent queues a connection-local frame for the write pump. The events
// channel is never closed, so this stays safe during teardown; a full buffer
// drops the frame rather than blocking the caller.
func (c *WebSocketClient) SendEvent(ev models.Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("WARNING: Dropping %s event for connection %s", ev.Type, c.connID)
	}
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the send channel, which stops the write pump. Must only be
// called after the manager has detached room membership.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message from %s: %v", c.userID, err)
			}
			break
		}

		var ev models.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("Error decoding event from client %s: %v", c.userID, err)
			continue
		}

		// A customer omitting the conversation id means their own.
		if ev.ConversationID == "" && c.role == models.RoleCustomer {
			ev.ConversationID = c.userID
		}

		switch ev.Type {
		case models.EventJoin:
			if err := c.Hub.Registry.Join(c, ev.ConversationID); err != nil {
				c.sendError(err)
			}
		case models.EventSend:
			if _, err := c.Hub.Router.Send(c.userID, c.role, ev.ConversationID, ev.Body); err != nil {
				c.sendError(err)
			}
		default:
			log.Printf("Unknown event type %q from client %s", ev.Type, c.userID)
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			msg.Origin = ""
			if err := c.Conn.WriteJSON(models.Event{Type: models.EventMessage, Message: &msg}); err != nil {
				return
			}

		case ev := <-c.events:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError reports a rejected operation back to this participant. The
// connection stays open; a failed send must reach the composer so the user
// can retry.
func (c *WebSocketClient) sendError(err error) {
	c.SendEvent(models.Event{Type: models.EventError, Code: ErrorCode(err), Detail: err.Error()})
}
