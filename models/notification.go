package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an in-app notification row. Only the read flag is ever
// mutated after creation.
type Notification struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"userId" gorm:"not null;index"`
	Title     string     `json:"title" gorm:"not null"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	Type      string     `json:"type" gorm:"size:50;not null"` // request_accepted, repair_started, progress_update, repair_completed, payment_received, new_rating, ...
	RequestID *uint      `json:"requestId" gorm:"index"`
	Read      bool       `json:"read" gorm:"default:false"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
