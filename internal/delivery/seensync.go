package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/presence"
	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
	ws "github.com/devanmodhavadiya189/chatapp/internal/websocket"
)

// Coordinator keeps read state in sync between the store and the sender's
// screen. It implements presence.SeenMarker so opening a conversation marks
// it read, and it backs the explicit mark-seen endpoint.
type Coordinator struct {
	presence  *presence.Service
	messages  domain.MessageRepository
	publisher pubsub.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCoordinator creates a seen-sync coordinator.
func NewCoordinator(p *presence.Service, messages domain.MessageRepository, pub pubsub.Publisher) *Coordinator {
	return &Coordinator{
		presence:  p,
		messages:  messages,
		publisher: pub,
		logger:    slog.Default().With("service", "seensync"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// MarkSeen marks every unseen message from senderID to receiverID as read
// and, when anything actually changed, notifies the sender if they are
// online. Offline senders get nothing: they learn the read state from the
// store when they next fetch the conversation. Calling MarkSeen on an
// already-read conversation changes nothing and emits nothing. The count
// of newly seen messages is returned.
func (c *Coordinator) MarkSeen(ctx context.Context, receiverID, senderID string) (int, error) {
	seenAt := c.now()

	count, err := c.messages.UpdateSeenBatch(ctx, receiverID, senderID, seenAt)
	if err != nil {
		return 0, fmt.Errorf("marking messages seen: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	c.logger.Info("Marked messages seen",
		"receiver_id", receiverID,
		"sender_id", senderID,
		"count", count)

	if !c.presence.IsOnline(senderID) {
		return count, nil
	}

	payload, err := json.Marshal(Envelope{
		Event: EventMessagesSeen,
		Data: SeenEvent{
			ReceiverID: receiverID,
			SenderID:   senderID,
			SeenAt:     seenAt,
		},
	})
	if err != nil {
		c.logger.Error("Failed to marshal seen event", "sender_id", senderID, "error", err)
		return count, nil
	}

	// The store is already updated; a failed notification only delays the
	// sender's UI until their next fetch.
	if err := c.publisher.Publish(ctx, pubsub.Message{
		Topic:   ws.TopicDataDirect,
		UserID:  receiverID,
		Payload: payload,
		Metadata: map[string]string{
			ws.MetadataRecipientID: senderID,
		},
	}); err != nil {
		c.logger.Error("Failed to publish seen event", "sender_id", senderID, "error", err)
	}

	return count, nil
}
