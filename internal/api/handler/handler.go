package handler

import (
	"brokerdesk/backend/internal/chathub"
	"brokerdesk/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler wires the HTTP surface to the realtime hub and storage.
type Handler struct {
	Hub       *chathub.Manager
	Storage   storage.Storage
	Directory *chathub.Directory

	secret []byte
}

func NewHandler(hub *chathub.Manager, s storage.Storage, dir *chathub.Directory, jwtSecret string) *Handler {
	return &Handler{
		Hub:       hub,
		Storage:   s,
		Directory: dir,
		secret:    []byte(jwtSecret),
	}
}

// Register mounts all routes. The same wiring serves production and the
// in-process test server.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/auth/token", h.IssueToken)

	authed := r.Group("/", h.AuthRequired())
	authed.GET("/ws", h.ServeWebSocket)
	authed.GET("/chat", h.GetMyHistory)

	admin := authed.Group("/admin/chat", h.AgentRequired())
	admin.GET("/conversations", h.GetConversations)
	admin.GET("/:userId", h.GetConversationHistory)
}
