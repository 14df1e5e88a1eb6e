package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Size of a client's outbound message buffer.
	sendBufferSize = 256
)

// Client represents a single connected WebSocket client.
type Client struct {
	// ID uniquely identifies this connection, not the user behind it.
	ID string
	// UserID is the authenticated user that owns this connection.
	UserID string
	conn   *websocket.Conn
	send   chan []byte
	bridge *Bridge
}

// clientEvent is the envelope clients send over the wire.
type clientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// directMessage is a message to be sent to all connections of one user.
type directMessage struct {
	targetUserID string
	payload      []byte
}

// Bridge manages all WebSocket connections and routes messages between
// connected clients and the Pub/Sub message bus.
type Bridge struct {
	publisher pubsub.Publisher

	// clients is a map of user IDs to their active connections. A user can
	// have multiple connections (browser tab, mobile).
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan *directMessage

	mu sync.RWMutex
}

// NewBridge initializes a new Bridge, ready to handle connections.
func NewBridge(pub pubsub.Publisher) *Bridge {
	return &Bridge{
		publisher:  pub,
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBufferSize),
		direct:     make(chan *directMessage, sendBufferSize),
	}
}

// Start subscribes the bridge to its outbound topics and launches the main
// routing goroutine. Components publish to TopicDataBroadcast and
// TopicDataDirect to reach connected clients.
func (b *Bridge) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, TopicDataBroadcast, func(ctx context.Context, msg pubsub.Message) error {
		b.Broadcast(msg.Payload)
		return nil
	}); err != nil {
		return err
	}

	if err := sub.Subscribe(ctx, TopicDataDirect, func(ctx context.Context, msg pubsub.Message) error {
		recipient := msg.Metadata[MetadataRecipientID]
		if recipient == "" {
			slog.Warn("Direct message missing recipient metadata, dropping", "topic", msg.Topic)
			return nil
		}
		b.SendDirect(recipient, msg.Payload)
		return nil
	}); err != nil {
		return err
	}

	go b.run(ctx)
	return nil
}

// run is the main bridge loop for client lifecycle and message routing.
func (b *Bridge) run(ctx context.Context) {
	slog.Info("WebSocket bridge runner started")
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client.UserID] = append(b.clients[client.UserID], client)
			b.mu.Unlock()
			slog.Info("Client registered", "userID", client.UserID, "clientID", client.ID)

		case client := <-b.unregister:
			b.mu.Lock()
			if clients, ok := b.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						b.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.send)
						break
					}
				}
				if len(b.clients[client.UserID]) == 0 {
					delete(b.clients, client.UserID)
				}
			}
			b.mu.Unlock()
			slog.Info("Client unregistered", "userID", client.UserID, "clientID", client.ID)

		case payload := <-b.broadcast:
			b.mu.RLock()
			for _, clients := range b.clients {
				for _, client := range clients {
					select {
					case client.send <- payload:
					default:
						slog.Warn("Client send channel full, dropping message", "userID", client.UserID)
					}
				}
			}
			b.mu.RUnlock()

		case msg := <-b.direct:
			b.mu.RLock()
			if clients, ok := b.clients[msg.targetUserID]; ok {
				for _, client := range clients {
					select {
					case client.send <- msg.payload:
					default:
						slog.Warn("Client send channel full, dropping direct message", "userID", client.UserID)
					}
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Handler returns an echo.HandlerFunc that upgrades authenticated requests
// to WebSocket connections.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(middleware.UserContextKey).(*domain.User)
		if !ok || user == nil || user.ID == nil {
			slog.Error("Bridge.Handler: no authenticated user in context")
			return c.String(http.StatusUnauthorized, "User not authenticated")
		}
		userID := user.ID.String()

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: userID,
			conn:   conn,
			send:   make(chan []byte, sendBufferSize),
			bridge: b,
		}
		b.register <- client

		go client.writePump()
		go client.readPump()

		b.publishLifecycle(TopicClientReady, client, "")
		return nil
	}
}

// publishLifecycle emits a client lifecycle event to the message bus.
func (b *Bridge) publishLifecycle(topic string, client *Client, reason string) {
	payload, err := json.Marshal(LifecycleEvent{
		UserID:   client.UserID,
		ClientID: client.ID,
		Reason:   reason,
	})
	if err != nil {
		slog.Error("Failed to marshal lifecycle event", "topic", topic, "error", err)
		return
	}

	msg := pubsub.Message{
		Topic:   topic,
		UserID:  client.UserID,
		Payload: payload,
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := b.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish lifecycle event", "topic", topic, "userID", client.UserID, "error", err)
	}
}

// handleClientEvent parses an inbound frame and publishes the matching
// session event. Malformed or unknown frames are logged and dropped; they
// never terminate the connection.
func (b *Bridge) handleClientEvent(client *Client, raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		slog.Warn("Ignoring malformed client frame", "userID", client.UserID, "error", err)
		return
	}

	switch event.Event {
	case "join_chat":
		var data struct {
			PeerID string `json:"peerId"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.PeerID == "" {
			slog.Warn("join_chat frame missing peerId", "userID", client.UserID)
			return
		}
		b.publishChatFocus(TopicChatOpened, client, data.PeerID)

	case "leave_chat":
		b.publishChatFocus(TopicChatClosed, client, "")

	default:
		slog.Debug("Ignoring unknown client event", "event", event.Event, "userID", client.UserID)
	}
}

func (b *Bridge) publishChatFocus(topic string, client *Client, peerID string) {
	payload, err := json.Marshal(ChatFocusEvent{
		UserID:   client.UserID,
		ClientID: client.ID,
		PeerID:   peerID,
	})
	if err != nil {
		slog.Error("Failed to marshal chat focus event", "topic", topic, "error", err)
		return
	}

	msg := pubsub.Message{
		Topic:   topic,
		UserID:  client.UserID,
		Payload: payload,
	}
	if err := b.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish chat focus event", "topic", topic, "userID", client.UserID, "error", err)
	}
}

// readPump pumps frames from the WebSocket connection into the bridge.
func (c *Client) readPump() {
	defer func() {
		c.bridge.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
		c.bridge.publishLifecycle(TopicClientDisconnected, c, "client_closed")
	}()

	for {
		_, message, err := c.conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "userID", c.UserID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "userID", c.UserID, "error", err)
			}
			break
		}
		c.bridge.handleClientEvent(c, message)
	}
}

// writePump pumps messages from the client's send channel to the connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
	}()

	for {
		message, ok := <-c.send
		if !ok {
			// The bridge closed the channel.
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "userID", c.UserID, "error", err)
			return
		}
	}
}

// Broadcast sends a payload to every connected client.
func (b *Bridge) Broadcast(payload []byte) {
	b.broadcast <- payload
}

// SendDirect sends a payload to all connections of a specific user.
func (b *Bridge) SendDirect(userID string, payload []byte) {
	b.direct <- &directMessage{targetUserID: userID, payload: payload}
}
