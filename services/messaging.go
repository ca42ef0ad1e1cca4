package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"repair-match-server/models"
)

// MessageBroadcaster pushes new messages to connected chat clients. The
// websocket hub implements it; a nil broadcaster is valid.
type MessageBroadcaster interface {
	BroadcastMessage(chatID uint, message *models.Message)
}

// MessagingService owns chats and their append-only message logs. Each
// repair request has at most one chat; customers and technicians can also
// chat before any request exists.
type MessagingService struct {
	db     *gorm.DB
	events MessageBroadcaster
}

// NewMessagingService creates a new messaging service
func NewMessagingService(db *gorm.DB, events MessageBroadcaster) *MessagingService {
	return &MessagingService{db: db, events: events}
}

// GetOrCreateChatForRequest returns the chat bound to a repair request,
// creating it on first use. The request must already have a technician.
func (s *MessagingService) GetOrCreateChatForRequest(requestID uint) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.Where("request_id = ?", requestID).First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var request models.RepairRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.TechnicianID == nil {
		return nil, fmt.Errorf("%w: request %d has no technician to chat with", ErrValidation, requestID)
	}

	chat = models.Chat{
		RequestID:      &request.ID,
		CustomerID:     request.CustomerID,
		CustomerName:   request.CustomerName,
		TechnicianID:   *request.TechnicianID,
		TechnicianName: request.TechnicianName,
	}
	if err := s.db.Create(&chat).Error; err != nil {
		// lost a race with a concurrent creator
		if lookupErr := s.db.Where("request_id = ?", requestID).First(&chat).Error; lookupErr == nil {
			return &chat, nil
		}
		return nil, err
	}
	log.Printf("💬 Chat %d created for request %d", chat.ID, requestID)
	return &chat, nil
}

// GetOrCreateDirectChat returns the request-less chat between a customer and
// a technician, creating it on first use.
func (s *MessagingService) GetOrCreateDirectChat(customerID, technicianID uint) (*models.Chat, error) {
	if customerID == technicianID {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrValidation)
	}

	var chat models.Chat
	err := s.db.Where("request_id IS NULL AND customer_id = ? AND technician_id = ?", customerID, technicianID).
		First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var customer, technician models.User
	if err := s.db.First(&customer, customerID).Error; err != nil {
		return nil, ErrNotFound
	}
	if err := s.db.First(&technician, technicianID).Error; err != nil {
		return nil, ErrNotFound
	}
	if !technician.IsTechnician() {
		return nil, fmt.Errorf("%w: user %d is not a technician", ErrValidation, technicianID)
	}

	chat = models.Chat{
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		TechnicianID:   technician.ID,
		TechnicianName: technician.Name,
	}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// PostMessage appends a participant's message to a chat and refreshes the
// chat's last-message projection in the same transaction.
func (s *MessagingService) PostMessage(chatID uint, actor Actor, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text cannot be blank", ErrValidation)
	}

	var chat models.Chat
	if err := s.db.First(&chat, chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(actor.UserID) {
		return nil, fmt.Errorf("%w: user %d is not in chat %d", ErrNotParticipant, actor.UserID, chatID)
	}

	role := models.SenderRoleCustomer
	if actor.UserID == chat.TechnicianID {
		role = models.SenderRoleTechnician
	}

	message := models.Message{
		ChatID:     chat.ID,
		SenderID:   actor.UserID,
		SenderName: actor.Name,
		SenderRole: role,
		Text:       text,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return touchChat(tx, chat.ID, &message)
	})
	if err != nil {
		return nil, err
	}

	s.Broadcast(&message)
	return &message, nil
}

// PostSystemMessageTx appends a system message to the request's chat inside
// the caller's transaction. A request with no chat yet gets one, provided a
// technician is assigned. The persisted message is returned so the caller
// can hand it to Broadcast once the transaction has committed; broadcasting
// here would announce a message the transaction may still roll back.
func (s *MessagingService) PostSystemMessageTx(tx *gorm.DB, request *models.RepairRequest, text string) (*models.Message, error) {
	var chat models.Chat
	err := tx.Where("request_id = ?", request.ID).First(&chat).Error
	if err == gorm.ErrRecordNotFound {
		if request.TechnicianID == nil {
			return nil, nil // nobody to talk to yet
		}
		chat = models.Chat{
			RequestID:      &request.ID,
			CustomerID:     request.CustomerID,
			CustomerName:   request.CustomerName,
			TechnicianID:   *request.TechnicianID,
			TechnicianName: request.TechnicianName,
		}
		if err := tx.Create(&chat).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	message := models.Message{
		ChatID:          chat.ID,
		SenderID:        0,
		SenderName:      "System",
		SenderRole:      models.SenderRoleSystem,
		Text:            text,
		IsSystemMessage: true,
	}
	if err := tx.Create(&message).Error; err != nil {
		return nil, err
	}
	if err := touchChat(tx, chat.ID, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Broadcast pushes an already-committed message to the chat's live stream.
func (s *MessagingService) Broadcast(message *models.Message) {
	if s.events == nil || message == nil {
		return
	}
	s.events.BroadcastMessage(message.ChatID, message)
}

// touchChat updates the chat's last-message projection.
func touchChat(tx *gorm.DB, chatID uint, message *models.Message) error {
	return tx.Model(&models.Chat{}).Where("id = ?", chatID).Updates(map[string]interface{}{
		"last_message":        message.Text,
		"last_message_time":   time.Now(),
		"last_message_sender": message.SenderRole,
	}).Error
}

// ListMessages returns a chat's messages oldest first. Ties on the
// timestamp fall back to insertion order.
func (s *MessagingService) ListMessages(chatID uint, actor Actor) ([]models.Message, error) {
	var chat models.Chat
	if err := s.db.First(&chat, chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(actor.UserID) {
		return nil, fmt.Errorf("%w: user %d is not in chat %d", ErrNotParticipant, actor.UserID, chatID)
	}

	var messages []models.Message
	err := s.db.Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// ListChats returns every chat the user participates in, most recently
// active first.
func (s *MessagingService) ListChats(userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.Where("customer_id = ? OR technician_id = ?", userID, userID).
		Order("last_message_time DESC NULLS LAST, updated_at DESC").
		Find(&chats).Error
	return chats, err
}

// GetChat returns a single chat the user participates in.
func (s *MessagingService) GetChat(chatID uint, actor Actor) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(actor.UserID) {
		return nil, ErrNotParticipant
	}
	return &chat, nil
}
