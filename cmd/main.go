package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"talkbuddy/backend/internal/api/handler"
	"talkbuddy/backend/internal/buddy"
	"talkbuddy/backend/internal/chathub"
	"talkbuddy/backend/internal/config"
	"talkbuddy/backend/internal/models"
	"talkbuddy/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
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
		&models.Session{},
		&models.SessionMessage{},
		&models.FriendRequest{},
		&models.SavedChat{},
		&models.SavedChatMessage{},
		&models.ChatMember{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting TalkBuddy Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	hub := chathub.NewManager(s)

	sessions := buddy.NewSessionService(s, hub)
	chats := buddy.NewSavedChatService(s, hub)
	requests := buddy.NewFriendRequestService(sessions, chats, s, hub)
	matchmaker := buddy.NewMatchmaker(sessions, s, hub)

	if err := buddy.RestoreState(sessions, requests, chats, s); err != nil {
		log.Fatalf("State recovery failed: %v", err)
	}

	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(matchmaker, sessions, requests, chats, hub, []byte(cfg.JWTSecret))

	r.GET("/anonid", h.GetAnonID)

	auth := r.Group("/", h.AuthRequired())
	auth.GET("/ws", h.ServeWebSocket)
	auth.GET("/state", h.State)
	auth.POST("/queue/join", h.Join)
	auth.POST("/queue/leave", h.Leave)
	auth.POST("/sessions/:id/messages", h.SendMessage)
	auth.GET("/sessions/:id/messages", h.ListMessages)
	auth.POST("/sessions/:id/friend-request", h.SendFriendRequest)
	auth.GET("/sessions/:id/friend-request", h.FriendRequestStatus)
	auth.POST("/sessions/:id/friend-request/accept", h.AcceptFriendRequest)
	auth.POST("/sessions/:id/friend-request/decline", h.DeclineFriendRequest)
	auth.GET("/chats", h.ListSavedChats)
	auth.POST("/chats/:id/messages", h.SendSavedChatMessage)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
