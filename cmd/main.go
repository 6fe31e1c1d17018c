package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"brokerdesk/backend/internal/api/handler"
	"brokerdesk/backend/internal/chathub"
	"brokerdesk/backend/internal/config"
	"brokerdesk/backend/internal/models"
	"brokerdesk/backend/internal/notify"
	"brokerdesk/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.MessageRecord{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting BrokerDesk support backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	registry := chathub.NewRegistry()
	directory := chathub.NewDirectory(s)
	router := chathub.NewRouter(s, registry, directory)
	hub := chathub.NewManager(s, registry, router)

	// Pre-warm the conversation directory so the first console load does not
	// wait on the snapshot query.
	if err := directory.Seed(); err != nil {
		log.Printf("WARNING: Failed to seed conversation directory: %v", err)
	}

	if cfg.TelegramBotToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramStaffChatID)
		if err != nil {
			log.Fatalf("Failed to start staff notifier: %v", err)
		}
		router.SetNotifier(notifier)
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, staff alerts disabled.")
	}

	go hub.Run()
	go hub.ListenEvents(s.SubscribeEvents())

	r := gin.Default()
	h := handler.NewHandler(hub, s, directory, cfg.JWTSecret)
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
