package handler

import (
	"net/http"

	"brokerdesk/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Lock down in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection and hands it to the hub. Runs
// behind AuthRequired, so the identity is already bound; the client carries
// it for its whole lifetime and no payload can override it.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	role := c.GetString(ctxRole)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, userID, role)

	h.Hub.RegisterCh <- client
	client.Run()
}
