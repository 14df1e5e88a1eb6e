package delivery

import (
	"time"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
)

// Event names pushed to WebSocket clients.
const (
	// EventReceiveMessage carries a newly delivered message.
	EventReceiveMessage = "receive_message"
	// EventMessagesSeen notifies a sender that their messages were read.
	EventMessagesSeen = "messages_seen"
)

// Envelope wraps every event pushed to clients so they can dispatch on the
// event name.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MessageEvent is the payload of EventReceiveMessage.
type MessageEvent struct {
	Message *domain.Message `json:"message"`
}

// SeenEvent is the payload of EventMessagesSeen. It tells the sender which
// conversation was read and when.
type SeenEvent struct {
	ReceiverID string    `json:"receiverId"`
	SenderID   string    `json:"senderId"`
	SeenAt     time.Time `json:"seenAt"`
}
