package chathub

import (
	"encoding/json"
	"log"
	"sync"

	"brokerdesk/backend/internal/models"
	"brokerdesk/backend/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Manager owns the set of live connections on this node. Clients register on
// upgrade and unregister on transport loss; unregistering always detaches
// room membership before the client is closed, so a broadcast can never
// write to a closed send channel. The manager also consumes the shared
// events channel so messages persisted by other nodes reach local rooms.
type Manager struct {
	Clients map[string]Client // keyed by ConnID

	RegisterCh   chan Client
	UnregisterCh chan Client
	// EventsCh carries messages arriving over Redis pub/sub. Exported so
	// tests can drive the remote-delivery path directly.
	EventsCh chan models.ChatMessage

	Storage  storage.Storage
	Registry *Registry
	Router   *Router

	// live connection count per user id; presence flips on 0<->1.
	userConns map[string]int

	// agent connections, keyed by ConnID. They receive inbox summary
	// frames for every conversation, joined or not. Guarded by agentsMu
	// because deliveries read the set from outside the run loop.
	agentsMu sync.RWMutex
	agents   map[string]Client
}

func NewManager(s storage.Storage, registry *Registry, router *Router) *Manager {
	m := &Manager{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventsCh:     make(chan models.ChatMessage),
		Storage:      s,
		Registry:     registry,
		Router:       router,
		userConns:    make(map[string]int),
		agents:       make(map[string]Client),
	}
	router.SetSummarySink(m)
	return m
}

// Run is the manager's dispatch loop. Start it in its own goroutine.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.RegisterCh:
			m.register(client)

		case client := <-m.UnregisterCh:
			m.unregister(client)

		case msg := <-m.EventsCh:
			// Drop the echo of this node's own publishes; Send already
			// delivered them locally.
			if msg.Origin == m.Router.Origin() {
				continue
			}
			msg.Origin = ""
			m.Router.Deliver(msg)
		}
	}
}

// ListenEvents pumps the Redis subscription into EventsCh. Start it in its
// own goroutine alongside Run.
func (m *Manager) ListenEvents(pubsub *redis.PubSub) {
	defer pubsub.Close()

	for raw := range pubsub.Channel() {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
			log.Printf("ERROR: Unmarshalling event from Redis: %v", err)
			continue
		}
		m.EventsCh <- msg
	}
}

// ConversationUpdated pushes a refreshed inbox summary to every connected
// agent. Agents observe all conversations this way without joining their
// rooms; the console re-ranks on each frame.
func (m *Manager) ConversationUpdated(sm models.ConversationSummary) {
	ev := models.Event{Type: models.EventSummary, ConversationID: sm.ConversationID, Summary: &sm}

	m.agentsMu.RLock()
	defer m.agentsMu.RUnlock()
	for _, agent := range m.agents {
		agent.SendEvent(ev)
	}
}

func (m *Manager) register(client Client) {
	m.Clients[client.ConnID()] = client

	if client.Role() == models.RoleAgent {
		m.agentsMu.Lock()
		m.agents[client.ConnID()] = client
		m.agentsMu.Unlock()
	}

	m.userConns[client.UserID()]++
	if m.userConns[client.UserID()] == 1 {
		if err := m.Storage.SetOnline(client.UserID()); err != nil {
			log.Printf("WARNING: Failed to mark user %s online: %v", client.UserID(), err)
		}
	}
}

func (m *Manager) unregister(client Client) {
	if _, ok := m.Clients[client.ConnID()]; !ok {
		return
	}
	delete(m.Clients, client.ConnID())

	m.agentsMu.Lock()
	delete(m.agents, client.ConnID())
	m.agentsMu.Unlock()

	// Membership must be gone before Close so no broadcast can hit a closed
	// send channel.
	m.Registry.Leave(client)

	m.userConns[client.UserID()]--
	if m.userConns[client.UserID()] <= 0 {
		delete(m.userConns, client.UserID())
		if err := m.Storage.SetOffline(client.UserID()); err != nil {
			log.Printf("WARNING: Failed to mark user %s offline: %v", client.UserID(), err)
		}
	}

	client.Close()
}
