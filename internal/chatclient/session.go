package chatclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"brokerdesk/backend/internal/chathub"
	"brokerdesk/backend/internal/models"

	"github.com/gorilla/websocket"
)

// SessionState tracks a connection's chat session lifecycle.
type SessionState int32

const (
	Disconnected SessionState = iota
	Connecting
	AwaitingHistory
	Live
)

func (s SessionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case AwaitingHistory:
		return "awaiting-history"
	case Live:
		return "live"
	default:
		return "disconnected"
	}
}

// Session is one participant's live view of a conversation. Connect dials
// the websocket, joins the room, pulls the history snapshot and merges it
// behind any live events that already arrived. On transport loss the session
// drops to Disconnected; calling Connect again starts over with a fresh
// history fetch, discarding the previous live-only state.
type Session struct {
	baseURL        string // e.g. http://localhost:8080
	token          string
	conversationID string
	admin          bool

	httpClient *http.Client

	mu    sync.Mutex
	state SessionState
	conn  *websocket.Conn

	rec *Reconciler

	// OnMessage, when set before Connect, is invoked for every live message
	// after it is folded into the view.
	OnMessage func(models.ChatMessage)
}

// NewSession prepares a session for the given conversation. admin selects
// the agent history endpoint; customers read their own conversation.
func NewSession(baseURL, token, conversationID string, admin bool) *Session {
	return &Session{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		conversationID: conversationID,
		admin:          admin,
		httpClient:     &http.Client{},
		rec:            NewReconciler(),
	}
}

// Connect establishes the websocket, joins the conversation's room, and
// reconciles history. Safe to call again after a disconnect.
func (s *Session) Connect() error {
	s.setState(Connecting)
	s.rec.Reset()

	wsURL, err := s.websocketURL()
	if err != nil {
		s.setState(Disconnected)
		return err
	}

	header := http.Header{"Authorization": {"Bearer " + s.token}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		s.setState(Disconnected)
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("unauthenticated: %w", err)
		}
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := conn.WriteJSON(models.Event{Type: models.EventJoin, ConversationID: s.conversationID}); err != nil {
		conn.Close()
		s.setState(Disconnected)
		return fmt.Errorf("join: %w", err)
	}

	s.setState(AwaitingHistory)

	// Live events buffer into the reconciler while history is in flight.
	go s.readLoop(conn)

	history, err := s.fetchHistory()
	if err != nil {
		conn.Close()
		s.setState(Disconnected)
		return err
	}
	s.rec.MergeHistory(history)
	s.setState(Live)
	return nil
}

// Send submits a message into the session's conversation.
func (s *Session) Send(body string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: session not connected", chathub.ErrTransportLost)
	}
	return conn.WriteJSON(models.Event{
		Type:           models.EventSend,
		ConversationID: s.conversationID,
		Body:           body,
	})
}

// Messages returns the reconciled conversation view.
func (s *Session) Messages() []models.ChatMessage {
	return s.rec.Messages()
}

// State returns the session's lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Close tears the session down on all exit paths; the server removes room
// membership when it detects the disconnect.
func (s *Session) Close() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = Disconnected
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (s *Session) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
			s.state = Disconnected
		}
		s.mu.Unlock()
	}()

	for {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		if ev.Type != models.EventMessage || ev.Message == nil {
			continue
		}
		if ev.Message.ConversationID != s.conversationID {
			continue
		}
		s.rec.AppendLive(*ev.Message)
		if s.OnMessage != nil {
			s.OnMessage(*ev.Message)
		}
	}
}

func (s *Session) fetchHistory() ([]models.ChatMessage, error) {
	path := "/chat"
	if s.admin {
		path = "/admin/chat/" + s.conversationID
	}

	req, err := http.NewRequest(http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch history: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var history []models.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

func (s *Session) websocketURL() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}
