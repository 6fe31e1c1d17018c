// Package chatclient is the Go client for the support messaging service. It
// owns the per-connection view of a conversation: a session state machine
// around the websocket plus a reconciler that merges the one-shot history
// fetch with the live broadcast stream into a single duplicate-free,
// chronologically ordered message list.
package chatclient

import (
	"sort"
	"sync"

	"brokerdesk/backend/internal/models"
)

// Reconciler combines a pulled history snapshot with pushed live events.
// Live events are appended unconditionally as they arrive, even before the
// history fetch resolves; the snapshot is merged afterwards and any message
// present in both sets (matched by persisted id) appears exactly once.
// Ordering is by timestamp, persisted id breaking ties.
type Reconciler struct {
	mu     sync.Mutex
	seen   map[uint]struct{}
	msgs   []models.ChatMessage
	merged bool
}

func NewReconciler() *Reconciler {
	return &Reconciler{seen: make(map[uint]struct{})}
}

// AppendLive records one broadcast message. Duplicates of already-known
// persisted ids are dropped.
func (r *Reconciler) AppendLive(msg models.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(msg)
}

// MergeHistory folds the history snapshot into the view. Messages that
// already arrived live are not duplicated.
func (r *Reconciler) MergeHistory(history []models.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range history {
		r.add(msg)
	}
	r.merged = true
}

// HistoryMerged reports whether the snapshot has been folded in yet.
func (r *Reconciler) HistoryMerged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.merged
}

// Messages returns the reconciled view in chronological order. Callers own
// the returned slice.
func (r *Reconciler) Messages() []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ChatMessage, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Len returns the number of distinct messages in the view.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// Reset discards all state. Called on reconnect: events missed while
// disconnected are not recoverable from the live stream, so the view is
// rebuilt from a fresh history fetch.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen = make(map[uint]struct{})
	r.msgs = nil
	r.merged = false
}

// add inserts one message, keeping msgs sorted. Callers hold r.mu.
func (r *Reconciler) add(msg models.ChatMessage) {
	if _, dup := r.seen[msg.PersistedID]; dup {
		return
	}
	r.seen[msg.PersistedID] = struct{}{}

	r.msgs = append(r.msgs, msg)
	// The common case is in-order arrival; only sort when the tail is out
	// of place (history merging in behind buffered live events).
	n := len(r.msgs)
	if n > 1 && older(r.msgs[n-1], r.msgs[n-2]) {
		sort.SliceStable(r.msgs, func(i, j int) bool {
			return older(r.msgs[i], r.msgs[j])
		})
	}
}

func older(a, b models.ChatMessage) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.PersistedID < b.PersistedID
}
