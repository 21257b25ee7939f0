package chathub

import (
	"log"

	"talkbuddy/backend/internal/models"
	"talkbuddy/backend/internal/storage"
)

// Manager is the hub: it tracks connected clients and fans realtime
// events out to whichever recipients hold a local connection. Events
// travel through Redis pub/sub, so a hub on any node delivers to its
// own clients regardless of which node produced the event.
type Manager struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan models.Event

	Storage storage.Storage
}

// NewManager creates the hub.
func NewManager(s storage.Storage) *Manager {
	return &Manager{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan models.Event, 64),
		Storage:      s,
	}
}

// Notify implements buddy.Notifier. The event is published to the
// shared channel; delivery to local clients happens in Run via the
// pub/sub listener, on this node and every other.
func (m *Manager) Notify(event models.Event) {
	if err := m.Storage.PublishEvent(event); err != nil {
		log.Printf("ERROR: Failed to publish event %s: %v", event.Type, err)
		// Deliver locally anyway so a Redis hiccup doesn't silence
		// clients connected to this node. The send must not block the
		// caller: if the hub is saturated, drop the event instead.
		select {
		case m.EventCh <- event:
		default:
			log.Printf("WARNING: Dropped event %s: hub buffer full", event.Type)
		}
	}
}

// Run is the hub's dispatcher loop. Register/unregister and event
// delivery all funnel through here, so the Clients map needs no lock.
func (m *Manager) Run() {
	m.startPubSubListener()

	for {
		select {
		case client := <-m.RegisterCh:
			if old, ok := m.Clients[client.GetUserID()]; ok {
				old.Close()
			}
			m.Clients[client.GetUserID()] = client
			log.Printf("Client connected: %s", client.GetUserID())

		case client := <-m.UnregisterCh:
			if current, ok := m.Clients[client.GetUserID()]; ok && current == client {
				delete(m.Clients, client.GetUserID())
			}
			log.Printf("Client disconnected: %s", client.GetUserID())

		case event := <-m.EventCh:
			m.deliver(event)
		}
	}
}

// deliver pushes the event to each recipient with a local connection.
// A recipient whose send buffer is full is dropped: a stuck client
// must not stall delivery to anyone else.
func (m *Manager) deliver(event models.Event) {
	for _, userID := range event.Recipients {
		client, ok := m.Clients[userID]
		if !ok {
			continue
		}
		select {
		case client.GetSendChannel() <- event:
		default:
			delete(m.Clients, userID)
			client.Close()
			log.Printf("Dropped slow client %s", userID)
		}
	}
}
