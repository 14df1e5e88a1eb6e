package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
	ws "github.com/devanmodhavadiya189/chatapp/internal/websocket"
)

// SeenMarker marks a conversation as read on behalf of a user. It is
// implemented by the delivery coordinator; the indirection exists so this
// package does not depend on delivery.
type SeenMarker interface {
	MarkSeen(ctx context.Context, receiverID, senderID string) (int, error)
}

// Service tracks which users are online and which conversation each has
// open. It consumes client lifecycle and chat focus events from the message
// bus and keeps the presence table current.
type Service struct {
	mu     sync.RWMutex
	table  *Table
	marker SeenMarker
	logger *slog.Logger
}

// NewService creates a presence service with an empty table.
func NewService() *Service {
	return &Service{
		table:  NewTable(),
		logger: slog.Default().With("service", "presence"),
	}
}

// SetSeenMarker wires the component that marks conversations read when a
// user opens them. Must be called before Start.
func (s *Service) SetSeenMarker(m SeenMarker) {
	s.marker = m
}

// Start subscribes the service to WebSocket lifecycle and chat focus events.
func (s *Service) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, ws.TopicClientReady, s.handleClientReady); err != nil {
		return fmt.Errorf("subscribing to client ready events: %w", err)
	}
	if err := sub.Subscribe(ctx, ws.TopicClientDisconnected, s.handleClientDisconnected); err != nil {
		return fmt.Errorf("subscribing to client disconnected events: %w", err)
	}
	if err := sub.Subscribe(ctx, ws.TopicChatOpened, s.handleChatOpened); err != nil {
		return fmt.Errorf("subscribing to chat opened events: %w", err)
	}
	if err := sub.Subscribe(ctx, ws.TopicChatClosed, s.handleChatClosed); err != nil {
		return fmt.Errorf("subscribing to chat closed events: %w", err)
	}

	s.logger.Info("Presence service started")
	return nil
}

func (s *Service) handleClientReady(ctx context.Context, msg pubsub.Message) error {
	var event ws.LifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal client ready event", "error", err)
		return err
	}

	s.Join(event.UserID, event.ClientID)
	return nil
}

func (s *Service) handleClientDisconnected(ctx context.Context, msg pubsub.Message) error {
	var event ws.LifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal client disconnected event", "error", err)
		return err
	}

	s.Disconnect(event.UserID, event.ClientID)
	return nil
}

func (s *Service) handleChatOpened(ctx context.Context, msg pubsub.Message) error {
	var event ws.ChatFocusEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal chat opened event", "error", err)
		return err
	}

	s.OpenConversation(ctx, event.UserID, event.PeerID)
	return nil
}

func (s *Service) handleChatClosed(ctx context.Context, msg pubsub.Message) error {
	var event ws.ChatFocusEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal chat closed event", "error", err)
		return err
	}

	s.CloseConversation(event.UserID)
	return nil
}

// Join records a user as online on the given connection. If the user was
// already online, the newer connection replaces the older one and any open
// conversation is forgotten.
func (s *Service) Join(userID, clientID string) {
	if userID == "" || clientID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.table.Get(userID); ok && prev.ClientID != clientID {
		s.logger.Info("Replacing existing session",
			"user_id", userID,
			"old_client_id", prev.ClientID,
			"new_client_id", clientID)
	}

	s.table.Put(Entry{UserID: userID, ClientID: clientID})
	s.logger.Info("User came online", "user_id", userID, "client_id", clientID, "online_users", s.table.Len())
}

// Disconnect marks a user offline. The entry is only removed when it still
// belongs to the disconnecting connection: a disconnect from a connection
// that has already been replaced must not evict the newer session.
// Disconnecting an offline user is a no-op.
func (s *Service) Disconnect(userID, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.table.Get(userID)
	if !ok {
		s.logger.Debug("Disconnect for user not in presence table", "user_id", userID)
		return
	}

	if clientID != "" && entry.ClientID != clientID {
		s.logger.Info("Ignoring stale disconnect",
			"user_id", userID,
			"disconnecting_client_id", clientID,
			"current_client_id", entry.ClientID)
		return
	}

	s.table.Remove(userID)
	s.logger.Info("User went offline", "user_id", userID, "online_users", s.table.Len())
}

// OpenConversation records that a user has the conversation with peerID on
// screen, then marks that conversation read. A failure to mark messages
// seen is logged and does not undo the presence update. Opening a
// conversation while offline is ignored.
func (s *Service) OpenConversation(ctx context.Context, userID, peerID string) {
	if peerID == "" {
		return
	}

	s.mu.Lock()
	updated := s.table.SetActiveChatPeer(userID, peerID)
	s.mu.Unlock()

	if !updated {
		s.logger.Debug("Chat opened by user not in presence table", "user_id", userID)
		return
	}

	if s.marker == nil {
		return
	}
	if _, err := s.marker.MarkSeen(ctx, userID, peerID); err != nil {
		s.logger.Error("Failed to mark conversation seen on open",
			"user_id", userID,
			"peer_id", peerID,
			"error", err)
	}
}

// CloseConversation clears the user's open conversation.
func (s *Service) CloseConversation(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table.SetActiveChatPeer(userID, "")
}

// IsOnline reports whether a user currently has a session.
func (s *Service) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.table.Get(userID)
	return ok
}

// ActiveChatPeer returns the peer whose conversation the user has open.
// The second return is false when the user is offline or has no open chat.
func (s *Service) ActiveChatPeer(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.table.Get(userID)
	if !ok || entry.ActiveChatPeer == "" {
		return "", false
	}
	return entry.ActiveChatPeer, true
}

// OnlineUsers returns the IDs of all users with a live session.
func (s *Service) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.table.Users()
}
