package chatclient_test

import (
	"testing"

	"brokerdesk/backend/internal/chatclient"
	"brokerdesk/backend/internal/chathub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A session that never reached its server walks Connecting back to
// Disconnected, and a send in that state reports the transport as lost
// rather than panicking or hanging.
func TestSession_FailedConnectReturnsToDisconnected(t *testing.T) {
	session := chatclient.NewSession("http://127.0.0.1:1", "token", "user-1", false)
	assert.Equal(t, chatclient.Disconnected, session.State())

	require.Error(t, session.Connect())
	assert.Equal(t, chatclient.Disconnected, session.State())

	assert.ErrorIs(t, session.Send("nobody home"), chathub.ErrTransportLost)
}
