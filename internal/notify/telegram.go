// Package notify alerts the support team when a new conversation opens, so
// first messages do not sit unseen until someone happens to load the
// console. Delivery goes to a staff Telegram chat; participants never
// receive anything through this path.
package notify

import (
	"fmt"
	"log"
	"strconv"

	"brokerdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier posts new-conversation alerts to one staff chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authorizes the bot and resolves the staff chat id.
func NewTelegramNotifier(token, staffChatID string) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(staffChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid staff chat id %q: %w", staffChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("Staff notifier authorized on account %s", bot.Self.UserName)

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// ConversationOpened fires on a conversation's first message. Best effort;
// a failed alert is logged and dropped.
func (n *TelegramNotifier) ConversationOpened(sm models.ConversationSummary) {
	name := sm.CustomerName
	if name == "" {
		name = sm.ConversationID
	}

	text := fmt.Sprintf("New support conversation from %s (%s): %s", name, sm.CustomerEmail, sm.LastMessage)
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		log.Printf("WARNING: Failed to deliver staff alert for conversation %s: %v", sm.ConversationID, err)
	}
}
