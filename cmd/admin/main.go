package main

import (
	"fmt"
	"log"
	"os"

	"talkbuddy/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sessions":
		if err := listSessions(storageSvc); err != nil {
			log.Fatalf("Error listing sessions: %v", err)
		}
	case "end":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin end <session_id>")
			os.Exit(1)
		}
		sessionID := os.Args[2]
		if err := storageSvc.CloseSession(sessionID); err != nil {
			log.Fatalf("Error ending session: %v", err)
		}
		fmt.Printf("Session %s has been ended.\n", sessionID)
	case "chats":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin chats <user_id>")
			os.Exit(1)
		}
		if err := listChats(storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error listing chats: %v", err)
		}
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func listSessions(s storage.Storage) error {
	sessions, err := s.GetActiveSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No active sessions.")
		return nil
	}
	for _, session := range sessions {
		fmt.Printf("%s  listener=%s seeker=%s started=%s\n",
			session.SessionID, session.ListenerID, session.SeekerID,
			session.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func listChats(s storage.Storage, userID string) error {
	chats, err := s.GetChatsForUser(userID)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Printf("No saved chats for user %s.\n", userID)
		return nil
	}
	for _, chat := range chats {
		fmt.Printf("%s  last=%s preview=%q\n",
			chat.ChatID, chat.LastMessageAt.Format("2006-01-02 15:04:05"), chat.Preview)
	}
	return nil
}
