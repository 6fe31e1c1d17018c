package config

import (
	"fmt"
	"os"
)

// Config carries everything the binaries read from the environment. Values
// come from the process environment; cmd/ loads a .env file first so local
// runs match docker-compose.
type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string

	JWTSecret  string
	ListenAddr string

	// Optional staff alerting; the notifier is disabled when the token is empty.
	TelegramBotToken    string
	TelegramStaffChatID string
}

// Load reads the configuration from the environment, falling back to local
// development defaults.
func Load() Config {
	return Config{
		DBHost:     getenv("DB_HOST", "localhost"),
		DBUser:     getenv("DB_USER", "user"),
		DBPassword: getenv("DB_PASSWORD", "password"),
		DBName:     getenv("DB_NAME", "brokerdeskdb"),
		DBPort:     getenv("DB_PORT", "5432"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:  getenv("JWT_SECRET", "dev-only-secret"),
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),

		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramStaffChatID: os.Getenv("TELEGRAM_STAFF_CHAT_ID"),
	}
}

// PostgresDSN builds the DSN for gorm's postgres driver.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
