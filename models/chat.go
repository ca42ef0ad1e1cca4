package models

import (
	"time"

	"gorm.io/gorm"
)

// SenderRole identifies who authored a message.
type SenderRole string

const (
	SenderRoleCustomer   SenderRole = "customer"
	SenderRoleTechnician SenderRole = "technician"
	SenderRoleSystem     SenderRole = "system"
)

// Chat is the conversation header between a customer and a technician.
// At most one chat exists per repair request; pre-request conversations
// (started from a technician profile) carry a nil RequestID.
type Chat struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	RequestID      *uint      `json:"requestId" gorm:"uniqueIndex"`
	CustomerID     uint       `json:"customerId" gorm:"not null;index"`
	TechnicianID   uint       `json:"technicianId" gorm:"not null;index"`
	CustomerName   string     `json:"customerName" gorm:"size:255"`
	TechnicianName string     `json:"technicianName" gorm:"size:255"`

	// Denormalized last-message projection for list views
	LastMessage       string     `json:"lastMessage" gorm:"type:text"`
	LastMessageTime   *time.Time `json:"lastMessageTime"`
	LastMessageSender string     `json:"lastMessageSender" gorm:"size:255"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Message is a single append-only entry in a chat. Messages are never
// mutated after creation; ordering is (created_at, id) ascending.
type Message struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	ChatID          uint       `json:"chatId" gorm:"not null;index"`
	SenderID        uint       `json:"senderId"`
	SenderName      string     `json:"senderName" gorm:"size:255"`
	SenderRole      SenderRole `json:"senderRole" gorm:"type:varchar(20);not null"`
	Text            string     `json:"text" gorm:"type:text;not null"`
	IsSystemMessage bool       `json:"isSystemMessage" gorm:"default:false"`
	CreatedAt       time.Time  `json:"timestamp"`
}

// TableName specifies the table name for the Chat model
func (Chat) TableName() string {
	return "chats"
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// Participants returns both user IDs of the conversation.
func (c *Chat) Participants() (uint, uint) {
	return c.CustomerID, c.TechnicianID
}

// HasParticipant checks whether userID belongs to this chat.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.CustomerID == userID || c.TechnicianID == userID
}

// MessageCreate represents the request structure for posting a chat message
type MessageCreate struct {
	Text string `json:"text" binding:"required"`
}
