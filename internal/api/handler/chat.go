package handler

import (
	"log"
	"net/http"

	"brokerdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// GetMyHistory returns the caller's own conversation history in delivery
// order. This is the one-shot snapshot the widget reconciles against its
// live stream.
func (h *Handler) GetMyHistory(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	history, err := h.Storage.GetHistory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, toMessages(history))
}

// GetConversationHistory returns any conversation's history. Agent-only.
func (h *Handler) GetConversationHistory(c *gin.Context) {
	conversationID := c.Param("userId")

	history, err := h.Storage.GetHistory(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, toMessages(history))
}

// GetConversations returns the directory, most recently active first, with
// customer presence attached. The index is rebuilt from the message log on
// every console load; if the rebuild fails the last known state is served.
func (h *Handler) GetConversations(c *gin.Context) {
	if err := h.Directory.Seed(); err != nil {
		log.Printf("ERROR: Directory rebuild failed, serving cached state: %v", err)
	}

	summaries := h.Directory.List()
	for i := range summaries {
		online, err := h.Storage.IsOnline(summaries[i].ConversationID)
		if err != nil {
			continue
		}
		summaries[i].Online = online
	}

	c.JSON(http.StatusOK, summaries)
}

func toMessages(records []models.MessageRecord) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(records))
	for i := range records {
		out = append(out, models.FromRecord(&records[i]))
	}
	return out
}
