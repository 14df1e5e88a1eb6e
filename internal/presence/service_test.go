package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
	ws "github.com/devanmodhavadiya189/chatapp/internal/websocket"
)

// mockSeenMarker implements SeenMarker for testing
type mockSeenMarker struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (m *mockSeenMarker) MarkSeen(ctx context.Context, receiverID, senderID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, [2]string{receiverID, senderID})
	return 0, m.err
}

func (m *mockSeenMarker) getCalls() [][2]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][2]string, len(m.calls))
	copy(result, m.calls)
	return result
}

// mockSubscriber records subscribed handlers so tests can feed events in.
type mockSubscriber struct {
	handlers map[string]pubsub.Handler
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{handlers: make(map[string]pubsub.Handler)}
}

func (m *mockSubscriber) Subscribe(ctx context.Context, topic string, handler pubsub.Handler) error {
	m.handlers[topic] = handler
	return nil
}

func (m *mockSubscriber) Close() error { return nil }

func TestService_Join(t *testing.T) {
	service := NewService()

	service.Join("user:alice", "client1")

	assert.True(t, service.IsOnline("user:alice"))
	assert.Contains(t, service.OnlineUsers(), "user:alice")

	// No conversation open yet.
	_, ok := service.ActiveChatPeer("user:alice")
	assert.False(t, ok)
}

func TestService_JoinReplacesExistingSession(t *testing.T) {
	service := NewService()

	service.Join("user:alice", "client1")
	service.OpenConversation(context.Background(), "user:alice", "user:bob")

	// A second join from a new connection takes over the session and
	// forgets the open conversation.
	service.Join("user:alice", "client2")

	assert.True(t, service.IsOnline("user:alice"))
	assert.Len(t, service.OnlineUsers(), 1)

	_, ok := service.ActiveChatPeer("user:alice")
	assert.False(t, ok, "new session should start with no open conversation")
}

func TestService_Disconnect(t *testing.T) {
	service := NewService()

	service.Join("user:alice", "client1")
	service.Disconnect("user:alice", "client1")

	assert.False(t, service.IsOnline("user:alice"))

	// Disconnecting again is a no-op.
	service.Disconnect("user:alice", "client1")
	assert.False(t, service.IsOnline("user:alice"))
}

func TestService_StaleDisconnectKeepsNewSession(t *testing.T) {
	service := NewService()

	service.Join("user:alice", "client1")
	service.Join("user:alice", "client2")

	// The old connection's disconnect arrives after the replacement.
	service.Disconnect("user:alice", "client1")

	assert.True(t, service.IsOnline("user:alice"), "newer session must survive stale disconnect")

	service.Disconnect("user:alice", "client2")
	assert.False(t, service.IsOnline("user:alice"))
}

func TestService_OpenConversation(t *testing.T) {
	marker := &mockSeenMarker{}
	service := NewService()
	service.SetSeenMarker(marker)

	service.Join("user:alice", "client1")
	service.OpenConversation(context.Background(), "user:alice", "user:bob")

	peer, ok := service.ActiveChatPeer("user:alice")
	require.True(t, ok)
	assert.Equal(t, "user:bob", peer)

	calls := marker.getCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, [2]string{"user:alice", "user:bob"}, calls[0])
}

func TestService_OpenConversationMarkSeenFailure(t *testing.T) {
	marker := &mockSeenMarker{err: errors.New("db unavailable")}
	service := NewService()
	service.SetSeenMarker(marker)

	service.Join("user:alice", "client1")
	service.OpenConversation(context.Background(), "user:alice", "user:bob")

	// The presence update sticks even though marking seen failed.
	peer, ok := service.ActiveChatPeer("user:alice")
	require.True(t, ok)
	assert.Equal(t, "user:bob", peer)
}

func TestService_OpenConversationWhileOffline(t *testing.T) {
	marker := &mockSeenMarker{}
	service := NewService()
	service.SetSeenMarker(marker)

	service.OpenConversation(context.Background(), "user:alice", "user:bob")

	assert.False(t, service.IsOnline("user:alice"))
	assert.Empty(t, marker.getCalls(), "offline users must not trigger mark seen")
}

func TestService_CloseConversation(t *testing.T) {
	service := NewService()

	service.Join("user:alice", "client1")
	service.OpenConversation(context.Background(), "user:alice", "user:bob")
	service.CloseConversation("user:alice")

	_, ok := service.ActiveChatPeer("user:alice")
	assert.False(t, ok)
	assert.True(t, service.IsOnline("user:alice"), "closing a chat must not affect presence")
}

func TestService_EventHandlers(t *testing.T) {
	service := NewService()
	sub := newMockSubscriber()
	ctx := context.Background()

	require.NoError(t, service.Start(ctx, sub))
	require.Len(t, sub.handlers, 4)

	ready, _ := json.Marshal(ws.LifecycleEvent{UserID: "user:alice", ClientID: "client1"})
	require.NoError(t, sub.handlers[ws.TopicClientReady](ctx, pubsub.Message{Topic: ws.TopicClientReady, Payload: ready}))
	assert.True(t, service.IsOnline("user:alice"))

	opened, _ := json.Marshal(ws.ChatFocusEvent{UserID: "user:alice", ClientID: "client1", PeerID: "user:bob"})
	require.NoError(t, sub.handlers[ws.TopicChatOpened](ctx, pubsub.Message{Topic: ws.TopicChatOpened, Payload: opened}))
	peer, ok := service.ActiveChatPeer("user:alice")
	require.True(t, ok)
	assert.Equal(t, "user:bob", peer)

	closed, _ := json.Marshal(ws.ChatFocusEvent{UserID: "user:alice", ClientID: "client1"})
	require.NoError(t, sub.handlers[ws.TopicChatClosed](ctx, pubsub.Message{Topic: ws.TopicChatClosed, Payload: closed}))
	_, ok = service.ActiveChatPeer("user:alice")
	assert.False(t, ok)

	gone, _ := json.Marshal(ws.LifecycleEvent{UserID: "user:alice", ClientID: "client1", Reason: "client_closed"})
	require.NoError(t, sub.handlers[ws.TopicClientDisconnected](ctx, pubsub.Message{Topic: ws.TopicClientDisconnected, Payload: gone}))
	assert.False(t, service.IsOnline("user:alice"))

	// Malformed payloads are reported but do not panic.
	err := sub.handlers[ws.TopicClientReady](ctx, pubsub.Message{Topic: ws.TopicClientReady, Payload: []byte(`{bad`)})
	assert.Error(t, err)
}
