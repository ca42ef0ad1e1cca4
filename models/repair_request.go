package models

import (
	"time"

	"gorm.io/gorm"
)

// RepairRequestStatus represents the current status of a repair request.
// The string literals are the wire contract consumed by the mobile clients
// and must not change.
type RepairRequestStatus string

const (
	StatusPending        RepairRequestStatus = "Pending"
	StatusNegotiating    RepairRequestStatus = "Negotiating"
	StatusServiceRequest RepairRequestStatus = "ServiceRequest"
	StatusAccepted       RepairRequestStatus = "Accepted"
	StatusInProgress     RepairRequestStatus = "In Progress"
	StatusCompleted      RepairRequestStatus = "Completed"
	StatusPaid           RepairRequestStatus = "Paid"
	StatusDenied         RepairRequestStatus = "Denied"
	StatusDeclined       RepairRequestStatus = "Declined"
	StatusCancelled      RepairRequestStatus = "Cancelled"
)

// RepairRequest represents a customer-submitted repair job tracked through
// the lifecycle state machine.
type RepairRequest struct {
	ID             uint                `json:"id" gorm:"primaryKey"`
	CustomerID     uint                `json:"customerId" gorm:"not null;index"`
	Customer       User                `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	CustomerName   string              `json:"customerName" gorm:"size:255"`
	TechnicianID   *uint               `json:"technicianId" gorm:"index"`
	Technician     *User               `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
	TechnicianName string              `json:"technicianName" gorm:"size:255"`
	DeviceType     string              `json:"deviceType" gorm:"size:100;not null"`
	Description    string              `json:"description" gorm:"type:text"`
	Status         RepairRequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	Address        string              `json:"address" gorm:"type:text"`
	LocationLat    *float64            `json:"locationLat" gorm:"type:decimal(10,8)"`
	LocationLng    *float64            `json:"locationLng" gorm:"type:decimal(11,8)"`
	Emergency      bool                `json:"emergency" gorm:"default:false"`

	AgreedPrice        *float64 `json:"agreedPrice" gorm:"type:decimal(10,2)"`
	FinalPrice         *float64 `json:"finalPrice" gorm:"type:decimal(10,2)"`
	ApprovedByCustomer bool     `json:"approvedByCustomer" gorm:"default:false"`
	ProgressPercentage int      `json:"progressPercentage" gorm:"default:0"`
	CompletionNotes    string   `json:"completionNotes" gorm:"type:text"`
	RepairDuration     *float64 `json:"repairDuration" gorm:"type:decimal(6,2)"`

	PaymentCompleted bool     `json:"paymentCompleted" gorm:"default:false"`
	TransactionID    *uint    `json:"transactionId"`
	HasReview        bool     `json:"hasReview" gorm:"default:false"`
	Rating           *int     `json:"rating"`
	ReviewID         *uint    `json:"reviewId"`

	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	AcceptedAt      *time.Time `json:"acceptedAt"`
	RepairStartedAt *time.Time `json:"repairStartedAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	PaymentDate     *time.Time `json:"paymentDate"`
	DeclinedAt      *time.Time `json:"declinedAt"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	ProgressUpdates []ProgressUpdate `json:"progressUpdates,omitempty" gorm:"foreignKey:RequestID"`
}

// ProgressUpdate is one entry of a request's progress timeline while the
// repair is in progress.
type ProgressUpdate struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  uint      `json:"requestId" gorm:"not null;index"`
	Percentage int       `json:"percentage" gorm:"not null;check:percentage >= 1 AND percentage <= 100"`
	Text       string    `json:"text" gorm:"type:text"`
	CreatedAt  time.Time `json:"timestamp"`
}

// TableName specifies the table name for the RepairRequest model
func (RepairRequest) TableName() string {
	return "repair_requests"
}

// TableName specifies the table name for the ProgressUpdate model
func (ProgressUpdate) TableName() string {
	return "progress_updates"
}

// HasParticipant reports whether a user is a party to the request, either
// as its customer or its assigned technician.
func (r *RepairRequest) HasParticipant(userID uint) bool {
	if r.CustomerID == userID {
		return true
	}
	return r.TechnicianID != nil && *r.TechnicianID == userID
}

// IsTerminal reports whether the request can no longer change status.
func (r *RepairRequest) IsTerminal() bool {
	switch r.Status {
	case StatusPaid, StatusDenied, StatusDeclined, StatusCancelled:
		return true
	default:
		return false
	}
}

// RepairRequestCreate represents the request structure for submitting a repair request
type RepairRequestCreate struct {
	DeviceType  string   `json:"deviceType" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Address     string   `json:"address"`
	LocationLat *float64 `json:"locationLat"`
	LocationLng *float64 `json:"locationLng"`
	Emergency   bool     `json:"emergency"`
}
