package storage

import (
	"encoding/json"
	"errors"
	"log"

	"brokerdesk/backend/internal/config"
	"brokerdesk/backend/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// AppendMessage appends one record to the message log. The caller presets
// CreatedAt (server-assigned timestamp); the database assigns the persisted
// id, which GORM writes back into rec.ID.
func (s *Service) AppendMessage(rec *models.MessageRecord) error {
	if err := s.DB.Create(rec).Error; err != nil {
		log.Printf("ERROR: Failed to append message for conversation %s: %v", rec.ConversationID, err)
		return err
	}
	return nil
}

// GetHistory returns a conversation's full message log in delivery order:
// creation time ascending, persisted id breaking ties.
func (s *Service) GetHistory(conversationID string) ([]models.MessageRecord, error) {
	var history []models.MessageRecord
	err := s.DB.Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc").
		Find(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return history, nil
		}
		log.Printf("ERROR: Failed to get history for conversation %s: %v", conversationID, err)
		return nil, err
	}
	return history, nil
}

// GetConversationSummaries rebuilds the agent inbox from the message log:
// the newest message per conversation joined with customer display info,
// newest conversation first. Uses DISTINCT ON (PostgreSQL) to pick the
// latest record within each conversation.
func (s *Service) GetConversationSummaries() ([]models.ConversationSummary, error) {
	rawSQL := `
        SELECT
            m.conversation_id,
            u.name  AS customer_name,
            u.email AS customer_email,
            u.tags  AS tags,
            m.body  AS last_message,
            m.created_at AS last_time
        FROM (
            SELECT DISTINCT ON (conversation_id)
                conversation_id,
                body,
                created_at,
                id
            FROM
                message_records
            WHERE
                deleted_at IS NULL
            ORDER BY
                conversation_id,
                created_at DESC,
                id DESC
        ) AS m
        JOIN users u ON u.id = m.conversation_id
        ORDER BY
            m.created_at DESC,
            m.id DESC
    `

	var summaries []models.ConversationSummary
	rows, err := s.DB.Raw(rawSQL).Rows()
	if err != nil {
		log.Printf("ERROR: Failed to load conversation summaries: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sm models.ConversationSummary
		var tags pq.StringArray
		if err := rows.Scan(&sm.ConversationID, &sm.CustomerName, &sm.CustomerEmail,
			&tags, &sm.LastMessage, &sm.LastTime); err != nil {
			return nil, err
		}
		sm.Tags = []string(tags)
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// PublishMessage publishes a message on the shared events channel so other
// nodes can fan it out to their own connections.
func (s *Service) PublishMessage(msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, config.EventsChannel, payload).Err()
}

// SubscribeEvents subscribes to the shared events channel.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, config.EventsChannel)
}
