package chathub

import (
	"log"
	"sync"

	"brokerdesk/backend/internal/models"
)

// Registry maps conversation ids to the set of live connections currently
// receiving that conversation's events. Each room carries its own mutex so
// membership changes and broadcasts are mutually exclusive per conversation
// while unrelated conversations never contend; the registry-level lock only
// guards the room map itself.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	mu      sync.Mutex
	members map[string]Client // keyed by ConnID
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join adds the connection to the conversation's room. A customer may only
// join the room matching their own user id; agents may join any room.
// Joining the room the connection is already in is a no-op. Joining a
// different room first leaves the old one, so an agent switching
// conversations never accumulates stale memberships.
func (r *Registry) Join(c Client, conversationID string) error {
	if conversationID == "" {
		return ErrInvalidMessage
	}
	if c.Role() != models.RoleAgent && conversationID != c.UserID() {
		return ErrForbidden
	}

	if current := c.RoomID(); current != "" && current != conversationID {
		r.Leave(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[conversationID]
	if !ok {
		rm = &room{members: make(map[string]Client)}
		r.rooms[conversationID] = rm
	}

	rm.mu.Lock()
	rm.members[c.ConnID()] = c
	rm.mu.Unlock()
	c.SetRoomID(conversationID)

	return nil
}

// Leave removes the connection from its current room, if any. Safe to call
// repeatedly and on connections that never joined. Empty rooms are dropped
// from the map.
func (r *Registry) Leave(c Client) {
	current := c.RoomID()
	if current == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok := r.rooms[current]; ok {
		rm.mu.Lock()
		delete(rm.members, c.ConnID())
		empty := len(rm.members) == 0
		rm.mu.Unlock()
		if empty {
			delete(r.rooms, current)
		}
	}
	c.SetRoomID("")
}

// Broadcast delivers the message to every connection joined to the
// conversation. Delivery is best effort: a connection whose send buffer is
// full (or that is going away) is skipped, never errored on. The room lock
// is held for the duration so no broadcast observes a half-updated member
// set.
func (r *Registry) Broadcast(conversationID string, msg models.ChatMessage) {
	r.mu.RLock()
	rm, ok := r.rooms[conversationID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, member := range rm.members {
		select {
		case member.SendChannel() <- msg:
		default:
			log.Printf("WARNING: Dropping message %d for slow connection %s", msg.PersistedID, member.ConnID())
		}
	}
}

// MemberCount reports how many connections are joined to the conversation.
func (r *Registry) MemberCount(conversationID string) int {
	r.mu.RLock()
	rm, ok := r.rooms[conversationID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}
