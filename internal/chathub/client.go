package chathub

import "brokerdesk/backend/internal/models"

// Client is the interface for any live participant connection. It abstracts
// the underlying transport so the registry and manager can treat websocket
// connections and test doubles uniformly.
type Client interface {
	// ConnID returns the unique identifier of this connection. One user may
	// hold several connections at once (two browser tabs, widget plus
	// console), each with its own ConnID.
	ConnID() string
	// UserID returns the stable user id bound to the connection at upgrade.
	UserID() string
	// Role returns the bound account role, models.RoleCustomer or models.RoleAgent.
	Role() string

	// RoomID returns the conversation the connection currently receives live
	// events for, or "" when it is in no room.
	RoomID() string
	// SetRoomID records the connection's current room. Called only by the
	// Registry while it holds the room lock.
	SetRoomID(string)

	// SendChannel returns the channel the registry delivers broadcast
	// messages on. It is send-only for callers.
	SendChannel() chan<- models.ChatMessage
	// SendEvent queues a connection-local frame (summary or error). Never
	// blocks; a frame the connection cannot take is dropped.
	SendEvent(models.Event)

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's send channel and underlying transport.
	Close()
}
