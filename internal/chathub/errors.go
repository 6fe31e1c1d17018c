package chathub

import "errors"

// Failure taxonomy for the realtime layer. Unauthenticated and Forbidden are
// terminal for the offending operation only; PersistenceFailure is surfaced
// to the sender so the message is never silently dropped; TransportLost is
// handled inside the connection lifecycle and surfaces only from client
// sessions that try to send after a disconnect.
var (
	// ErrUnauthenticated means no identity could be bound to the connection.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means a role/ownership check failed on a join or send.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidMessage means the message body is empty after trimming.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrPersistenceFailure means the message log rejected the append; the
	// message was not broadcast.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrTransportLost means the connection dropped mid-operation.
	ErrTransportLost = errors.New("transport lost")
)

// ErrorCode maps a chathub error onto its wire-level error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrInvalidMessage):
		return "InvalidMessage"
	case errors.Is(err, ErrPersistenceFailure):
		return "PersistenceFailure"
	case errors.Is(err, ErrTransportLost):
		return "TransportLost"
	default:
		return "Internal"
	}
}
