package config

import "time"

const (
	// Tokens
	TokenTTL    = 72 * time.Hour
	TokenIssuer = "brokerdesk-support"

	// Realtime
	ClientSendBuffer = 256
	EventsChannel    = "support:events"
	OnlineUsersKey   = "support:online"
)
