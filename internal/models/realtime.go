package models

import "time"

// Sender role markers as they appear on the wire and in persisted records.
// Customers send as "user", agents as "admin".
const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

// SenderRoleFor maps an account role to its wire-level sender role.
func SenderRoleFor(accountRole string) string {
	if accountRole == RoleAgent {
		return SenderAdmin
	}
	return SenderUser
}

// ChatMessage is the realtime representation of one support message, both as
// the broadcast payload fanned out to room members and as the unit the
// history endpoints return.
type ChatMessage struct {
	PersistedID    uint      `json:"persistedId"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"sender"`
	SenderRole     string    `json:"senderRole"`
	Body           string    `json:"body"`
	Timestamp      time.Time `json:"timestamp"`

	// Origin identifies the node that published the message to Redis, so a
	// node can drop the echo of its own publishes. Never sent to clients.
	Origin string `json:"origin,omitempty"`
}

// FromRecord converts a persisted row into its realtime form.
func FromRecord(rec *MessageRecord) ChatMessage {
	return ChatMessage{
		PersistedID:    rec.ID,
		ConversationID: rec.ConversationID,
		SenderID:       rec.SenderID,
		SenderRole:     rec.SenderRole,
		Body:           rec.Body,
		Timestamp:      rec.CreatedAt,
	}
}

// Websocket event types. Inbound: join, sendMessage. Outbound: message,
// summary, error.
const (
	EventJoin    = "join"
	EventSend    = "sendMessage"
	EventMessage = "message"
	EventSummary = "summary"
	EventError   = "error"
)

// Event is the envelope every websocket frame carries. Which fields are set
// depends on Type: join uses ConversationID, sendMessage uses ConversationID
// and Body, message carries Message, summary carries Summary, error carries
// Code and Detail.
//
// Sender identity and role are never read from the payload; they come from
// the identity bound to the connection at upgrade time.
type Event struct {
	Type           string               `json:"type"`
	ConversationID string               `json:"conversationId,omitempty"`
	Body           string               `json:"body,omitempty"`
	Message        *ChatMessage         `json:"message,omitempty"`
	Summary        *ConversationSummary `json:"summary,omitempty"`
	Code           string               `json:"code,omitempty"`
	Detail         string               `json:"detail,omitempty"`
}
