package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"brokerdesk/backend/internal/chatclient"
	"brokerdesk/backend/internal/config"
	"brokerdesk/backend/internal/models"
	"brokerdesk/backend/internal/storage"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  agent <email>          promote an account to the agent role")
		fmt.Println("  conversations          list conversations, newest activity first")
		fmt.Println("  tail <conversationID>  follow a conversation live")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "agent":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin agent <email>")
			os.Exit(1)
		}
		email := os.Args[2]
		if err := promoteAgent(openStorage(cfg), email); err != nil {
			log.Fatalf("Error promoting account: %v", err)
		}
		fmt.Printf("Account %s is now an agent.\n", email)
	case "conversations":
		if err := listConversations(openStorage(cfg)); err != nil {
			log.Fatalf("Error listing conversations: %v", err)
		}
	case "tail":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin tail <conversationID>")
			os.Exit(1)
		}
		if err := tailConversation(cfg, os.Args[2]); err != nil {
			log.Fatalf("Error tailing conversation: %v", err)
		}
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func openStorage(cfg config.Config) *storage.Service {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	// No Redis needed for the admin CLI's database commands.
	return storage.NewStorageService(db, nil)
}

func promoteAgent(s *storage.Service, email string) error {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no account with email %s", email)
	}
	if user.Role == models.RoleAgent {
		return fmt.Errorf("account %s is already an agent", email)
	}
	user.Role = models.RoleAgent
	return s.SaveUser(user)
}

func listConversations(s *storage.Service) error {
	summaries, err := s.GetConversationSummaries()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}
	for _, sm := range summaries {
		name := sm.CustomerName
		if name == "" {
			name = sm.ConversationID
		}
		preview := sm.LastMessage
		if len(preview) > 60 {
			preview = preview[:57] + "..."
		}
		fmt.Printf("%s  %-24s %-30s %s\n",
			sm.LastTime.Local().Format("2006-01-02 15:04"), name, sm.CustomerEmail, preview)
	}
	return nil
}

// tailConversation joins a conversation as an agent observer and prints the
// history snapshot followed by live traffic until interrupted.
func tailConversation(cfg config.Config, conversationID string) error {
	baseURL := os.Getenv("SUPPORT_URL")
	if baseURL == "" {
		if strings.HasPrefix(cfg.ListenAddr, ":") {
			baseURL = "http://localhost" + cfg.ListenAddr
		} else {
			baseURL = "http://" + cfg.ListenAddr
		}
	}

	token, err := signOpsToken(cfg.JWTSecret)
	if err != nil {
		return err
	}

	// Live events can land while the history snapshot is still printing, so
	// the printer dedupes on the persisted id.
	var printMu sync.Mutex
	printed := make(map[uint]bool)
	printOnce := func(msg models.ChatMessage) {
		printMu.Lock()
		defer printMu.Unlock()
		if printed[msg.PersistedID] {
			return
		}
		printed[msg.PersistedID] = true
		printMessage(msg)
	}

	session := chatclient.NewSession(baseURL, token, conversationID, true)
	session.OnMessage = printOnce
	if err := session.Connect(); err != nil {
		return err
	}

	for _, msg := range session.Messages() {
		printOnce(msg)
	}
	fmt.Printf("-- tailing %s (Ctrl-C to stop) --\n", conversationID)

	select {}
}

// signOpsToken mints an agent token for the CLI itself. The hub authorizes
// agents by role, not identity, so a synthetic operator id is enough.
func signOpsToken(secret string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": "ops-cli",
		"role":    models.RoleAgent,
		"exp":     time.Now().Add(config.TokenTTL).Unix(),
		"iss":     config.TokenIssuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func printMessage(msg models.ChatMessage) {
	fmt.Printf("[%s] %s (%s): %s\n",
		msg.Timestamp.Local().Format("15:04:05"), msg.SenderID, msg.SenderRole, msg.Body)
}
