package chathub

import (
	"encoding/json"
	"log"

	"talkbuddy/backend/internal/models"
)

// startPubSubListener subscribes to the shared event channel and
// feeds everything into the hub's dispatcher loop. Events published
// by any node arrive here, including this node's own.
func (m *Manager) startPubSubListener() {
	pubsub := m.Storage.SubscribeEvents()

	go func() {
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var event models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("Error unmarshalling pub/sub event: %v", err)
				continue
			}
			m.EventCh <- event
		}
	}()
}
