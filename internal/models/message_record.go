package models

import "gorm.io/gorm"

// MessageRecord is a persisted support message in PostgreSQL. The embedded
// gorm.Model supplies the persisted id (primary key) and CreatedAt, which
// together define message ordering within a conversation: CreatedAt first,
// insertion order (ID) breaking ties. Records are append-only; nothing in
// this subsystem updates or deletes them.
type MessageRecord struct {
	gorm.Model

	// ConversationID equals the customer's user id; a conversation exists
	// implicitly once its first message is appended.
	ConversationID string `gorm:"type:uuid;not null;index:idx_conversation_created"`
	// SenderID is the account that sent the message (customer or agent).
	SenderID string `gorm:"type:uuid;not null"`
	// SenderRole is the wire-level role marker, SenderUser or SenderAdmin.
	SenderRole string `gorm:"type:text;not null"`
	// Body is the message text, already trimmed and validated.
	Body string `gorm:"type:text;not null"`
}
