package storage

import (
	"context"
	"errors"
	"log"

	"brokerdesk/backend/internal/config"
	"brokerdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the external persistence contract the realtime layer depends
// on: an append-only message log with query-by-conversation, account lookup
// for directory display info, a cross-node publish channel, and a presence
// set. The chathub packages only ever see this interface.
type Storage interface {
	SaveUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetOrCreateUser(email, name string) (*models.User, error)

	AppendMessage(rec *models.MessageRecord) error
	GetHistory(conversationID string) ([]models.MessageRecord, error)
	GetConversationSummaries() ([]models.ConversationSummary, error)

	PublishMessage(msg models.ChatMessage) error

	SetOnline(userID string) error
	SetOffline(userID string) error
	IsOnline(userID string) (bool, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveUser upserts an account row.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// GetUserByID loads an account by its id. Returns nil without an error when
// no such account exists.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail loads an account by email. Operator tooling addresses
// accounts by email; nothing in the realtime path needs this, so it lives on
// the concrete service only.
func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser finds an account by email or creates a customer account
// with the given display name.
func (s *Service) GetOrCreateUser(email, name string) (*models.User, error) {
	var user models.User

	defaults := models.User{Email: email, Name: name}
	result := s.DB.Where("email = ?", email).FirstOrCreate(&user, defaults)
	if result.Error != nil {
		log.Printf("ERROR: Failed to get or create user %s: %v", email, result.Error)
		return nil, result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("INFO: New account %s created (id: %s).", email, user.ID)
	}

	return &user, nil
}

// SetOnline adds the user to the Redis presence set.
func (s *Service) SetOnline(userID string) error {
	return s.Redis.SAdd(s.Ctx, config.OnlineUsersKey, userID).Err()
}

// SetOffline removes the user from the Redis presence set.
func (s *Service) SetOffline(userID string) error {
	return s.Redis.SRem(s.Ctx, config.OnlineUsersKey, userID).Err()
}

// IsOnline reports whether any of the user's connections is live.
func (s *Service) IsOnline(userID string) (bool, error) {
	return s.Redis.SIsMember(s.Ctx, config.OnlineUsersKey, userID).Result()
}
