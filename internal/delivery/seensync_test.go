package delivery_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devanmodhavadiya189/chatapp/internal/delivery"
	"github.com/devanmodhavadiya189/chatapp/internal/presence"
	ws "github.com/devanmodhavadiya189/chatapp/internal/websocket"
)

func TestCoordinator_MarkSeenNotifiesOnlineSender(t *testing.T) {
	pub := &mockPublisher{}
	repo := &fakeMessageRepo{batchCount: 3}
	pres := presence.NewService()
	pres.Join("user:alice", "client1")

	coord := delivery.NewCoordinator(pres, repo, pub)
	count, err := coord.MarkSeen(context.Background(), "user:bob", "user:alice")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Len(t, repo.batchCalls, 1)
	assert.Equal(t, [2]string{"user:bob", "user:alice"}, repo.batchCalls[0])

	msgs := pub.getMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ws.TopicDataDirect, msgs[0].Topic)
	assert.Equal(t, "user:alice", msgs[0].Metadata[ws.MetadataRecipientID],
		"seen event must be addressed to the sender only")

	event, data := decodeEnvelope(t, msgs[0].Payload)
	assert.Equal(t, delivery.EventMessagesSeen, event)

	var seen delivery.SeenEvent
	require.NoError(t, json.Unmarshal(data, &seen))
	assert.Equal(t, "user:bob", seen.ReceiverID)
	assert.Equal(t, "user:alice", seen.SenderID)
	assert.False(t, seen.SeenAt.IsZero())
}

func TestCoordinator_MarkSeenNothingChanged(t *testing.T) {
	pub := &mockPublisher{}
	repo := &fakeMessageRepo{batchCount: 0}
	pres := presence.NewService()
	pres.Join("user:alice", "client1")

	coord := delivery.NewCoordinator(pres, repo, pub)
	count, err := coord.MarkSeen(context.Background(), "user:bob", "user:alice")
	require.NoError(t, err)
	assert.Zero(t, count)

	// An already-read conversation emits nothing, so repeated calls are safe.
	assert.Empty(t, pub.getMessages())
}

func TestCoordinator_MarkSeenOfflineSender(t *testing.T) {
	pub := &mockPublisher{}
	repo := &fakeMessageRepo{batchCount: 2}
	pres := presence.NewService()

	coord := delivery.NewCoordinator(pres, repo, pub)
	count, err := coord.MarkSeen(context.Background(), "user:bob", "user:alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The store is updated but no event is sent; the sender reads the new
	// state from the store on their next fetch.
	require.Len(t, repo.batchCalls, 1)
	assert.Empty(t, pub.getMessages())
}

func TestCoordinator_MarkSeenStoreFailure(t *testing.T) {
	pub := &mockPublisher{}
	repo := &fakeMessageRepo{batchErr: errors.New("db unavailable")}
	pres := presence.NewService()
	pres.Join("user:alice", "client1")

	coord := delivery.NewCoordinator(pres, repo, pub)
	_, err := coord.MarkSeen(context.Background(), "user:bob", "user:alice")

	require.Error(t, err)
	assert.Empty(t, pub.getMessages(), "no event may be emitted when nothing was persisted")
}

func TestCoordinator_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("bus down")}
	repo := &fakeMessageRepo{batchCount: 1}
	pres := presence.NewService()
	pres.Join("user:alice", "client1")

	coord := delivery.NewCoordinator(pres, repo, pub)
	count, err := coord.MarkSeen(context.Background(), "user:bob", "user:alice")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
