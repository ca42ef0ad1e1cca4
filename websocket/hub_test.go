package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, id uint) *Client {
	return &Client{
		Hub:      hub,
		ID:       id,
		UserType: "customer",
		Send:     make(chan []byte, 8),
	}
}

func drainEnvelope(t *testing.T, client *Client) *Envelope {
	t.Helper()
	select {
	case raw := <-client.Send:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		return &envelope
	default:
		return nil
	}
}

func TestJoinChatRequiresMembership(t *testing.T) {
	hub := NewHub()
	hub.CanJoinChat = func(userID uint, chatID uint) bool {
		return userID == 10 && chatID == 3
	}

	participant := newTestClient(hub, 10)
	stranger := newTestClient(hub, 99)

	require.NoError(t, hub.handleJoinChat(participant, &Envelope{Type: "join_chat", ChatID: 3}))
	assert.True(t, hub.ChatRoomMembers[3][10])

	require.NoError(t, hub.handleJoinChat(stranger, &Envelope{Type: "join_chat", ChatID: 3}))
	assert.False(t, hub.ChatRoomMembers[3][99])

	envelope := drainEnvelope(t, stranger)
	require.NotNil(t, envelope)
	assert.Equal(t, "error", envelope.Type)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "not_participant", data["errorType"])
}

func TestJoinChatDeniedWithoutAuthorizer(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, 7)
	require.NoError(t, hub.handleJoinChat(client, &Envelope{Type: "join_chat", ChatID: 1}))

	assert.Empty(t, hub.ChatRoomMembers[1])
	envelope := drainEnvelope(t, client)
	require.NotNil(t, envelope)
	assert.Equal(t, "error", envelope.Type)
}

func TestJoinChatRejectsMissingChatID(t *testing.T) {
	hub := NewHub()
	hub.CanJoinChat = func(uint, uint) bool { return true }

	client := newTestClient(hub, 7)
	require.NoError(t, hub.handleJoinChat(client, &Envelope{Type: "join_chat"}))

	envelope := drainEnvelope(t, client)
	require.NotNil(t, envelope)
	assert.Equal(t, "error", envelope.Type)
}

func TestTypingRelayedOnlyFromRoomMembers(t *testing.T) {
	hub := NewHub()
	hub.CanJoinChat = func(uint, uint) bool { return true }

	member := newTestClient(hub, 10)
	peer := newTestClient(hub, 20)
	outsider := newTestClient(hub, 99)

	hub.Clients[member.ID] = member
	hub.Clients[peer.ID] = peer
	hub.Clients[outsider.ID] = outsider
	hub.AddUserToChatRoom(member.ID, 3)
	hub.AddUserToChatRoom(peer.ID, 3)

	typing := &Envelope{Type: "typing", ChatID: 3, Timestamp: time.Now()}
	require.NoError(t, hub.handleTypingIndicator(outsider, typing))
	assert.Nil(t, drainEnvelope(t, peer))

	typing.SenderID = member.ID
	require.NoError(t, hub.handleTypingIndicator(member, typing))
	relayed := drainEnvelope(t, peer)
	require.NotNil(t, relayed)
	assert.Equal(t, "typing", relayed.Type)
	assert.Nil(t, drainEnvelope(t, member))
}
