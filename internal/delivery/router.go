package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/presence"
	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
	ws "github.com/devanmodhavadiya189/chatapp/internal/websocket"
)

// Router fans newly persisted messages out to connected clients. Messages
// are broadcast to every client; each client filters for conversations it
// is displaying. When the receiver already has the sender's conversation
// open, the router marks the message seen before it goes out, so the
// receiver never sees an unread flash for a chat they are looking at.
type Router struct {
	presence  *presence.Service
	messages  domain.MessageRepository
	publisher pubsub.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewRouter creates a delivery router.
func NewRouter(p *presence.Service, messages domain.MessageRepository, pub pubsub.Publisher) *Router {
	return &Router{
		presence:  p,
		messages:  messages,
		publisher: pub,
		logger:    slog.Default().With("service", "delivery"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Deliver routes one persisted message to clients and returns the copy that
// was emitted, which may carry a fresher seen state than the stored input.
// Delivery never fails the caller: persistence and publish errors are
// logged and the message still goes out.
func (r *Router) Deliver(ctx context.Context, msg *domain.Message) *domain.Message {
	out := *msg

	// Auto-seen: the receiver is online and looking at this conversation.
	if peer, ok := r.presence.ActiveChatPeer(msg.ReceiverID); ok && peer == msg.SenderID {
		seenAt := r.now()
		if err := r.messages.UpdateSeenSingle(ctx, msg.ID, seenAt); err != nil {
			// The stored row keeps its old state; deliver unmarked so the
			// wire reflects what was persisted.
			r.logger.Error("Failed to auto-mark message seen",
				"message_id", msg.ID,
				"receiver_id", msg.ReceiverID,
				"error", err)
		} else {
			out.Seen = true
			out.SeenAt = &surrealmodels.CustomDateTime{Time: seenAt}
		}
	}

	payload, err := json.Marshal(Envelope{
		Event: EventReceiveMessage,
		Data:  MessageEvent{Message: &out},
	})
	if err != nil {
		r.logger.Error("Failed to marshal message event", "message_id", msg.ID, "error", err)
		return &out
	}

	if err := r.publisher.Publish(ctx, pubsub.Message{
		Topic:   ws.TopicDataBroadcast,
		UserID:  msg.SenderID,
		Payload: payload,
	}); err != nil {
		r.logger.Error("Failed to publish message event", "message_id", msg.ID, "error", err)
	}

	return &out
}
