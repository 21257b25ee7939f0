package buddy

import "talkbuddy/backend/internal/models"

// Notifier receives realtime events from the core: match found,
// message appended, friend request received or resolved. Delivery
// semantics (push over websocket, fan-out through Redis, polling)
// are the transport's concern; the core only emits.
type Notifier interface {
	Notify(event models.Event)
}

// NopNotifier discards all events. Used by the admin CLI and tests
// that don't care about delivery.
type NopNotifier struct{}

func (NopNotifier) Notify(models.Event) {}
