package chathub

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"brokerdesk/backend/internal/models"
	"brokerdesk/backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier receives an alert when a conversation is opened by its first
// message. Wired to the Telegram staff channel in production; optional.
type Notifier interface {
	ConversationOpened(models.ConversationSummary)
}

// SummarySink receives the refreshed summary after every delivery. The
// manager implements it to push inbox updates to connected agents, who
// observe all conversations without joining their rooms.
type SummarySink interface {
	ConversationUpdated(models.ConversationSummary)
}

// Router accepts outbound message intents, stamps and persists them, patches
// the directory, and fans out to the conversation's room. Sends for one
// conversation are serialized on a per-conversation mutex so persistence and
// broadcast never reorder relative to each other; sends for different
// conversations proceed independently.
type Router struct {
	store     storage.Storage
	registry  *Registry
	directory *Directory
	notifier  Notifier
	summaries SummarySink

	// origin tags published messages so this node's pub/sub listener can
	// drop its own echoes.
	origin string

	mu        sync.Mutex
	sendLocks map[string]*sync.Mutex
}

func NewRouter(store storage.Storage, registry *Registry, directory *Directory) *Router {
	return &Router{
		store:     store,
		registry:  registry,
		directory: directory,
		origin:    uuid.New().String(),
		sendLocks: make(map[string]*sync.Mutex),
	}
}

// SetNotifier installs the new-conversation alert hook.
func (r *Router) SetNotifier(n Notifier) {
	r.notifier = n
}

// SetSummarySink installs the inbox-update hook. Called once at wiring time,
// before any traffic flows.
func (r *Router) SetSummarySink(s SummarySink) {
	r.summaries = s
}

// Origin returns this node's id, used to recognize its own published events.
func (r *Router) Origin() string {
	return r.origin
}

// Send validates, persists, and fans out one message.
//
// The sender identity and account role come from the connection's bound
// identity, never from the payload. A customer may only send into their own
// conversation. The creation timestamp is assigned here, server-side, so
// ordering holds under client clock skew. Persistence failure rejects the
// send before any broadcast: an unpersisted message is never delivered.
func (r *Router) Send(senderID, accountRole, conversationID, body string) (models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" || conversationID == "" {
		return models.ChatMessage{}, ErrInvalidMessage
	}
	if accountRole != models.RoleAgent && senderID != conversationID {
		return models.ChatMessage{}, ErrForbidden
	}

	lock := r.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	rec := &models.MessageRecord{
		Model:          gorm.Model{CreatedAt: time.Now().UTC()},
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     models.SenderRoleFor(accountRole),
		Body:           body,
	}
	if err := r.store.AppendMessage(rec); err != nil {
		return models.ChatMessage{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	msg := models.FromRecord(rec)
	msg.Origin = r.origin

	r.Deliver(msg)

	// Cross-node fan-out is best effort; local delivery already happened.
	if err := r.store.PublishMessage(msg); err != nil {
		log.Printf("ERROR: Failed to publish message %d to the events channel: %v", msg.PersistedID, err)
	}

	return msg, nil
}

// Deliver patches the directory and broadcasts to the local room. Called by
// Send for this node's own messages and by the manager's pub/sub listener
// for messages other nodes persisted.
func (r *Router) Deliver(msg models.ChatMessage) {
	created, err := r.directory.Upsert(msg)
	if err != nil {
		log.Printf("ERROR: Failed to update directory for conversation %s: %v", msg.ConversationID, err)
	}

	r.registry.Broadcast(msg.ConversationID, msg)

	if sm, ok := r.directory.Summary(msg.ConversationID); ok {
		if r.summaries != nil {
			r.summaries.ConversationUpdated(sm)
		}
		if created && r.notifier != nil {
			go r.notifier.ConversationOpened(sm)
		}
	}
}

func (r *Router) lockFor(conversationID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.sendLocks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		r.sendLocks[conversationID] = lock
	}
	return lock
}
