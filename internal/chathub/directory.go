package chathub

import (
	"container/list"
	"log"
	"sync"

	"brokerdesk/backend/internal/models"
	"brokerdesk/backend/internal/storage"
)

// Directory is the agent inbox: a recency-ordered index of conversation
// summaries. It is a derived cache over the message log, rebuilt wholesale
// by Seed on console load and patched by Upsert on every send. The order
// list keeps the most recently active conversation at the front; an update
// moves its entry forward without ever duplicating it.
type Directory struct {
	store storage.Storage

	mu      sync.RWMutex
	order   *list.List               // of *models.ConversationSummary, front = newest
	entries map[string]*list.Element // conversation id -> element in order
}

func NewDirectory(store storage.Storage) *Directory {
	return &Directory{
		store:   store,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Seed rebuilds the index from the message log. Any incrementally patched
// state is discarded; summaries arrive newest-first from storage.
func (d *Directory) Seed() error {
	summaries, err := d.store.GetConversationSummaries()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.order.Init()
	d.entries = make(map[string]*list.Element, len(summaries))
	for i := range summaries {
		sm := summaries[i]
		d.entries[sm.ConversationID] = d.order.PushBack(&sm)
	}
	return nil
}

// Upsert patches the conversation's summary with the newly sent message and
// moves it to the front of the ordering. A conversation not yet indexed gets
// a fresh entry, which requires one customer-profile read for display info.
// Returns whether a new entry was created (the conversation's first message
// since boot).
func (d *Directory) Upsert(msg models.ChatMessage) (bool, error) {
	d.mu.RLock()
	_, known := d.entries[msg.ConversationID]
	d.mu.RUnlock()

	// Profile lookup happens outside the lock so a slow read never blocks
	// List callers.
	var profile *models.User
	if !known {
		var err error
		profile, err = d.store.GetUserByID(msg.ConversationID)
		if err != nil {
			return false, err
		}
		if profile == nil {
			log.Printf("WARNING: No account found for conversation %s; indexing without display info", msg.ConversationID)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.entries[msg.ConversationID]; ok {
		sm := el.Value.(*models.ConversationSummary)
		sm.LastMessage = msg.Body
		sm.LastTime = msg.Timestamp
		d.order.MoveToFront(el)
		return false, nil
	}

	sm := &models.ConversationSummary{
		ConversationID: msg.ConversationID,
		LastMessage:    msg.Body,
		LastTime:       msg.Timestamp,
	}
	if profile != nil {
		sm.CustomerName = profile.Name
		sm.CustomerEmail = profile.Email
		sm.Tags = []string(profile.Tags)
	}
	d.entries[msg.ConversationID] = d.order.PushFront(sm)
	return true, nil
}

// List returns a snapshot of all summaries, most recently active first.
// Safe to call concurrently with Upsert; callers own the returned slice.
func (d *Directory) List() []models.ConversationSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.ConversationSummary, 0, d.order.Len())
	for el := d.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*models.ConversationSummary))
	}
	return out
}

// Summary returns the indexed summary for one conversation, if present.
func (d *Directory) Summary(conversationID string) (models.ConversationSummary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	el, ok := d.entries[conversationID]
	if !ok {
		return models.ConversationSummary{}, false
	}
	return *el.Value.(*models.ConversationSummary), true
}
