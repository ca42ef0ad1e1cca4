package models

import (
	"time"
)

// PaymentMethod is how a completed repair was paid.
type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodGcash PaymentMethod = "gcash"
)

// Transaction is the immutable financial record of a completed payment.
// Rows are only ever inserted, never updated.
type Transaction struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	RequestID      uint          `json:"requestId" gorm:"not null;uniqueIndex"`
	CustomerID     uint          `json:"customerId" gorm:"not null;index"`
	TechnicianID   uint          `json:"technicianId" gorm:"not null;index"`
	Amount         float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentMethod  PaymentMethod `json:"paymentMethod" gorm:"type:varchar(10);not null"`
	Status         string        `json:"status" gorm:"type:varchar(20);not null;default:'Completed'"`
	PaymentDetails string        `json:"paymentDetails" gorm:"type:text"` // method-specific JSON
	RepairType     string        `json:"repairType" gorm:"size:100"`
	Description    string        `json:"description" gorm:"type:text"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Invoice is derived 1:1 from a Transaction and is immutable.
type Invoice struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	TransactionID   uint          `json:"transactionId" gorm:"not null;uniqueIndex"`
	RequestID       uint          `json:"requestId" gorm:"not null;index"`
	CustomerID      uint          `json:"customerId" gorm:"not null;index"`
	CustomerName    string        `json:"customerName" gorm:"size:255"`
	TechnicianID    uint          `json:"technicianId" gorm:"not null;index"`
	TechnicianName  string        `json:"technicianName" gorm:"size:255"`
	Amount          float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" gorm:"type:varchar(10);not null"`
	DeviceType      string        `json:"deviceType" gorm:"size:100"`
	Description     string        `json:"description" gorm:"type:text"`
	CompletionNotes string        `json:"completionNotes" gorm:"type:text"`
	InvoiceNumber   string        `json:"invoiceNumber" gorm:"size:20;uniqueIndex;not null"`
	CreatedAt       time.Time     `json:"createdAt"`
	PaidAt          time.Time     `json:"paidAt"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// IsValidPaymentMethod checks a payment method literal
func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodGcash:
		return true
	default:
		return false
	}
}

// CardPaymentDetails is what card payments persist. Full card numbers are
// never stored.
type CardPaymentDetails struct {
	CardType string `json:"cardType"`
	LastFour string `json:"lastFour"`
}

// GcashPaymentDetails is what GCash payments persist.
type GcashPaymentDetails struct {
	Method          string `json:"method"`
	PhoneNumber     string `json:"phoneNumber"`
	ReferenceNumber string `json:"referenceNumber"`
}

// CashPaymentDetails is what cash-on-hand payments persist.
type CashPaymentDetails struct {
	Method string `json:"method"`
}
