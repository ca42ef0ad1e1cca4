package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is a customer's rating of a technician after payment. Immutable
// once created; at most one review exists per repair request.
type Review struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	RequestID    uint   `json:"requestId" gorm:"not null;uniqueIndex"`
	CustomerID   uint   `json:"customerId" gorm:"not null;index"`
	CustomerName string `json:"customerName" gorm:"size:255"`
	TechnicianID uint   `json:"technicianId" gorm:"not null;index"`
	Rating       int    `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Review       string `json:"review" gorm:"type:text"`
	DeviceType   string `json:"deviceType" gorm:"size:100"`
	Status       string `json:"status" gorm:"size:20;default:'active'"` // kept for moderation
	CreatedAt    time.Time      `json:"createdAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// ReviewCreate represents the request structure for submitting a review
type ReviewCreate struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}
