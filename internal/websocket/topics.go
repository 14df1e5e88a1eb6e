package websocket

// Topics used by the WebSocket bridge for routing messages between
// connected clients and the Pub/Sub message bus.
const (
	// TopicDataBroadcast broadcasts a JSON payload to all connected clients.
	TopicDataBroadcast = "ws.data.broadcast"

	// TopicDataDirect sends a JSON payload to a single user. The target
	// user ID must be set in the message metadata under MetadataRecipientID.
	TopicDataDirect = "ws.data.direct"

	// TopicClientReady is published when a client successfully connects
	// and its pumps are running.
	TopicClientReady = "ws.client.ready"

	// TopicClientDisconnected is published when a client's connection closes.
	TopicClientDisconnected = "ws.client.disconnected"

	// TopicChatOpened is published when a client reports it has opened a
	// conversation view with another user.
	TopicChatOpened = "session.chat.opened"

	// TopicChatClosed is published when a client reports it has left its
	// current conversation view.
	TopicChatClosed = "session.chat.closed"
)

// MetadataRecipientID is the metadata key carrying the target user ID for
// messages published to TopicDataDirect.
const MetadataRecipientID = "recipient_id"

// LifecycleEvent is the payload published on TopicClientReady and
// TopicClientDisconnected.
type LifecycleEvent struct {
	UserID   string `json:"userID"`
	ClientID string `json:"clientID"`
	Reason   string `json:"reason,omitempty"`
}

// ChatFocusEvent is the payload published on TopicChatOpened and
// TopicChatClosed.
type ChatFocusEvent struct {
	UserID   string `json:"userID"`
	ClientID string `json:"clientID"`
	PeerID   string `json:"peerID,omitempty"`
}
