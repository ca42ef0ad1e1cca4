package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"repair-match-server/models"
)

// Hub manages all WebSocket connections
type Hub struct {
	// Registered clients by user ID
	Clients map[uint]*Client

	// Chat room members: chat ID -> set of user IDs
	ChatRoomMembers map[uint]map[uint]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Message handlers by envelope type
	MessageHandlers map[string]MessageHandler

	// CanJoinChat decides whether a user is a participant of a chat.
	// Joins are rejected while it is unset.
	CanJoinChat func(userID uint, chatID uint) bool

	mu sync.RWMutex
}

// Envelope is the frame exchanged over the socket
type Envelope struct {
	Type      string      `json:"type"`
	ChatID    uint        `json:"chatId,omitempty"`
	RequestID uint        `json:"requestId,omitempty"`
	SenderID  uint        `json:"senderId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageHandler handles one envelope type
type MessageHandler func(*Client, *Envelope) error

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	hub := &Hub{
		Clients:         make(map[uint]*Client),
		ChatRoomMembers: make(map[uint]map[uint]bool),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		MessageHandlers: make(map[string]MessageHandler),
	}
	hub.registerDefaultHandlers()
	return hub
}

func (h *Hub) registerDefaultHandlers() {
	h.MessageHandlers["join_chat"] = h.handleJoinChat
	h.MessageHandlers["leave_chat"] = h.handleLeaveChat
	h.MessageHandlers["typing"] = h.handleTypingIndicator
	h.MessageHandlers["ping"] = h.handlePing
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: ID=%d, Type=%s", client.ID, client.UserType)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client.ID]; ok {
				for chatID := range h.ChatRoomMembers {
					delete(h.ChatRoomMembers[chatID], client.ID)
				}
				delete(h.Clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: ID=%d, Type=%s", client.ID, client.UserType)
		}
	}
}

// SendToUser sends an envelope to a specific user if connected
func (h *Hub) SendToUser(userID uint, envelope *Envelope) {
	h.mu.RLock()
	client, exists := h.Clients[userID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("❌ Error marshaling envelope: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ User %d's send buffer is full", userID)
	}
}

// AddUserToChatRoom adds a user to a chat room
func (h *Hub) AddUserToChatRoom(userID uint, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ChatRoomMembers[chatID] == nil {
		h.ChatRoomMembers[chatID] = make(map[uint]bool)
	}
	h.ChatRoomMembers[chatID][userID] = true
}

// RemoveUserFromChatRoom removes a user from a chat room
func (h *Hub) RemoveUserFromChatRoom(userID uint, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ChatRoomMembers[chatID] != nil {
		delete(h.ChatRoomMembers[chatID], userID)
	}
}

// SendToChatRoom sends an envelope to every member of a chat room,
// optionally excluding one user
func (h *Hub) SendToChatRoom(chatID uint, envelope *Envelope, excludeUserID uint) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("❌ Error marshaling envelope: %v", err)
		return
	}

	for userID := range h.ChatRoomMembers[chatID] {
		if userID == excludeUserID {
			continue
		}
		client, exists := h.Clients[userID]
		if !exists {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ User %d's send buffer is full", userID)
		}
	}
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.Clients[userID]
	return exists
}

// BroadcastMessage pushes a persisted chat message to the chat's room.
// Implements the messaging service's broadcaster.
func (h *Hub) BroadcastMessage(chatID uint, message *models.Message) {
	envelope := &Envelope{
		Type:      "chat_message",
		ChatID:    chatID,
		SenderID:  message.SenderID,
		Timestamp: time.Now(),
		Data:      message,
	}
	h.SendToChatRoom(chatID, envelope, message.SenderID)
}

// BroadcastRequestUpdate pushes a status change to both parties of a
// request. Implements the lifecycle service's broadcaster.
func (h *Hub) BroadcastRequestUpdate(requestID uint, customerID uint, technicianID *uint, status models.RepairRequestStatus) {
	envelope := &Envelope{
		Type:      "request_update",
		RequestID: requestID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"requestId": requestID,
			"status":    status,
		},
	}
	h.SendToUser(customerID, envelope)
	if technicianID != nil {
		h.SendToUser(*technicianID, envelope)
	}
}

func (h *Hub) handleJoinChat(client *Client, envelope *Envelope) error {
	if envelope.ChatID == 0 {
		return client.SendError("invalid_chat", "chatId is required to join a chat")
	}
	if h.CanJoinChat == nil || !h.CanJoinChat(client.ID, envelope.ChatID) {
		log.Printf("🚫 User %d denied access to chat room %d", client.ID, envelope.ChatID)
		return client.SendError("not_participant", "You are not a participant of this chat")
	}
	h.AddUserToChatRoom(client.ID, envelope.ChatID)
	log.Printf("👥 User %d joined chat room %d", client.ID, envelope.ChatID)
	return nil
}

func (h *Hub) handleLeaveChat(client *Client, envelope *Envelope) error {
	h.RemoveUserFromChatRoom(client.ID, envelope.ChatID)
	return nil
}

// handleTypingIndicator relays typing state to the room, never persisted.
// Only members of the room may relay into it.
func (h *Hub) handleTypingIndicator(client *Client, envelope *Envelope) error {
	h.mu.RLock()
	member := h.ChatRoomMembers[envelope.ChatID][client.ID]
	h.mu.RUnlock()
	if !member {
		return nil
	}
	h.SendToChatRoom(envelope.ChatID, envelope, client.ID)
	return nil
}

func (h *Hub) handlePing(client *Client, envelope *Envelope) error {
	pong := &Envelope{Type: "pong", Timestamp: time.Now()}
	data, err := json.Marshal(pong)
	if err != nil {
		return err
	}
	select {
	case client.Send <- data:
	default:
	}
	return nil
}
