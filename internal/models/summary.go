package models

import "time"

// ConversationSummary is one row of the agent inbox: a derived cache of the
// newest message in a conversation plus the customer display info the
// console renders next to it. Non-authoritative; rebuilt from the message
// log on console load and patched on every send.
type ConversationSummary struct {
	ConversationID string    `json:"conversationId"`
	CustomerName   string    `json:"customerName"`
	CustomerEmail  string    `json:"customerEmail"`
	Tags           []string  `json:"tags,omitempty"`
	LastMessage    string    `json:"lastMessage"`
	LastTime       time.Time `json:"lastTime"`
	Online         bool      `json:"online"`
}
