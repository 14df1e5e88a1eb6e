package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devanmodhavadiya189/chatapp/internal/delivery"
	"github.com/devanmodhavadiya189/chatapp/internal/domain"
)

// dialWS opens an authenticated WebSocket connection to the test server.
func dialWS(t *testing.T, ctx context.Context, serverURL string, cookie *http.Cookie) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	header := http.Header{}
	header.Add("Cookie", cookie.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	require.NoError(t, err, "Failed to connect to websocket")
	return conn
}

// readEnvelope reads one frame from the connection and unmarshals the
// event envelope.
func readEnvelope(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from websocket")

	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &envelope))
	return envelope.Event, envelope.Data
}

func sendMessage(t *testing.T, serverURL, receiverID, text string, cookie *http.Cookie) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/messages/send/"+receiverID, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode, "send should succeed")
}

// TestDeliveryFlow_Integration drives the full path: REST send, WebSocket
// delivery, chat focus tracking and seen notifications.
func TestDeliveryFlow_Integration(t *testing.T) {
	_, testServer, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	aliceID, aliceCookie := signupUser(t, testServer.URL, uniqueEmail("alice"), "a-secure-password")
	bobID, bobCookie := signupUser(t, testServer.URL, uniqueEmail("bob"), "a-secure-password")

	bobConn := dialWS(t, ctx, testServer.URL, bobCookie)
	defer bobConn.Close()
	aliceConn := dialWS(t, ctx, testServer.URL, aliceCookie)
	defer aliceConn.Close()

	// Give the client.ready events a moment to register both sessions.
	time.Sleep(200 * time.Millisecond)

	t.Run("message is pushed to the receiver", func(t *testing.T) {
		sendMessage(t, testServer.URL, bobID, "hello bob", aliceCookie)

		event, data := readEnvelope(t, bobConn)
		require.Equal(t, delivery.EventReceiveMessage, event)

		var msgEvent struct {
			Message domain.Message `json:"message"`
		}
		require.NoError(t, json.Unmarshal(data, &msgEvent))
		assert.Equal(t, "hello bob", msgEvent.Message.Text)
		assert.Equal(t, aliceID, msgEvent.Message.SenderID)
		assert.Equal(t, bobID, msgEvent.Message.ReceiverID)
		assert.False(t, msgEvent.Message.Seen, "receiver was not viewing the chat yet")

		// Message events are broadcast; every client gets the frame and
		// filters on receiverId. Alice's copy is addressed to Bob.
		event, data = readEnvelope(t, aliceConn)
		require.Equal(t, delivery.EventReceiveMessage, event)
		require.NoError(t, json.Unmarshal(data, &msgEvent))
		assert.Equal(t, bobID, msgEvent.Message.ReceiverID)
	})

	t.Run("opening the chat notifies the sender", func(t *testing.T) {
		frame, err := json.Marshal(map[string]any{
			"event": "join_chat",
			"data":  map[string]string{"peerId": aliceID},
		})
		require.NoError(t, err)
		require.NoError(t, bobConn.WriteMessage(websocket.TextMessage, frame))

		event, data := readEnvelope(t, aliceConn)
		require.Equal(t, delivery.EventMessagesSeen, event)

		var seen delivery.SeenEvent
		require.NoError(t, json.Unmarshal(data, &seen))
		assert.Equal(t, bobID, seen.ReceiverID)
		assert.Equal(t, aliceID, seen.SenderID)
		assert.False(t, seen.SeenAt.IsZero())
	})

	t.Run("message to an open chat arrives already seen", func(t *testing.T) {
		// Bob is still viewing the conversation with Alice.
		sendMessage(t, testServer.URL, bobID, "are you there?", aliceCookie)

		event, data := readEnvelope(t, bobConn)
		require.Equal(t, delivery.EventReceiveMessage, event)

		var msgEvent struct {
			Message domain.Message `json:"message"`
		}
		require.NoError(t, json.Unmarshal(data, &msgEvent))
		assert.Equal(t, "are you there?", msgEvent.Message.Text)
		assert.True(t, msgEvent.Message.Seen, "receiver has the chat open")
		require.NotNil(t, msgEvent.Message.SeenAt)
	})
}
