package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"repair-match-server/models"
)

// PaymentInput is the payload for settling a completed repair.
type PaymentInput struct {
	Method          models.PaymentMethod `json:"method" binding:"required"`
	CardType        string               `json:"cardType"`
	CardNumber      string               `json:"cardNumber"`
	PhoneNumber     string               `json:"phoneNumber"`
	ReferenceNumber string               `json:"referenceNumber"`
}

// PaymentService settles completed repairs. A settlement writes the
// transaction, its invoice, the request flip to Paid and the technician's
// earnings in one database transaction.
type PaymentService struct {
	db        *gorm.DB
	messaging *MessagingService
	events    StatusBroadcaster
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, messaging *MessagingService, events StatusBroadcaster) *PaymentService {
	return &PaymentService{db: db, messaging: messaging, events: events}
}

// Pay settles a completed repair with a customer-side method (card or
// GCash).
func (s *PaymentService) Pay(actor Actor, requestID uint, input PaymentInput) (*models.Transaction, error) {
	if actor.Role != models.UserTypeCustomer {
		return nil, fmt.Errorf("%w: only the customer pays by %s", ErrWrongActor, input.Method)
	}
	if input.Method == models.PaymentMethodCash {
		return nil, fmt.Errorf("%w: cash payments are confirmed by the technician", ErrValidation)
	}
	return s.settle(actor, requestID, input)
}

// ConfirmCashPayment settles a completed repair after the technician
// received cash in hand.
func (s *PaymentService) ConfirmCashPayment(actor Actor, requestID uint) (*models.Transaction, error) {
	if actor.Role != models.UserTypeTechnician {
		return nil, fmt.Errorf("%w: only the technician confirms cash payments", ErrWrongActor)
	}
	return s.settle(actor, requestID, PaymentInput{Method: models.PaymentMethodCash})
}

func (s *PaymentService) settle(actor Actor, requestID uint, input PaymentInput) (*models.Transaction, error) {
	var request models.RepairRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := checkIdentity(&request, actor); err != nil {
		return nil, err
	}
	if request.Status == models.StatusPaid || request.PaymentCompleted {
		return nil, ErrAlreadyPaid
	}
	if request.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: request %d is %s, payment requires Completed", ErrInvalidTransition, requestID, request.Status)
	}

	amount := paymentAmount(&request)
	if amount <= 0 {
		return nil, ErrNoAgreedPrice
	}

	details, err := buildPaymentDetails(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	transaction := models.Transaction{
		RequestID:      request.ID,
		CustomerID:     request.CustomerID,
		TechnicianID:   *request.TechnicianID,
		Amount:         amount,
		PaymentMethod:  input.Method,
		Status:         "Completed",
		PaymentDetails: details,
		RepairType:     request.DeviceType,
		Description:    fmt.Sprintf("%s repair service", request.DeviceType),
	}

	var systemMessage *models.Message
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Optimistic guard: a doubled tap or a racing confirm loses here.
		res := tx.Model(&models.RepairRequest{}).
			Where("id = ? AND status = ? AND payment_completed = ?", request.ID, models.StatusCompleted, false).
			Updates(map[string]interface{}{
				"status":            models.StatusPaid,
				"payment_completed": true,
				"payment_date":      &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyPaid
		}

		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.RepairRequest{}).Where("id = ?", request.ID).
			Update("transaction_id", transaction.ID).Error; err != nil {
			return err
		}

		invoice := models.Invoice{
			TransactionID:   transaction.ID,
			InvoiceNumber:   generateInvoiceNumber(now),
			RequestID:       request.ID,
			CustomerID:      request.CustomerID,
			CustomerName:    request.CustomerName,
			TechnicianID:    *request.TechnicianID,
			TechnicianName:  request.TechnicianName,
			Amount:          amount,
			PaymentMethod:   input.Method,
			DeviceType:      request.DeviceType,
			Description:     transaction.Description,
			CompletionNotes: request.CompletionNotes,
			PaidAt:          now,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", *request.TechnicianID).
			Updates(map[string]interface{}{
				"total_earnings":    gorm.Expr("total_earnings + ?", amount),
				"completed_repairs": gorm.Expr("completed_repairs + 1"),
			}).Error; err != nil {
			return err
		}

		intent := paymentNotification(&request, input.Method, amount)
		if err := createNotification(tx, intent, request.ID); err != nil {
			return err
		}

		msg, err := s.messaging.PostSystemMessageTx(tx, &request,
			fmt.Sprintf("Payment of $%.2f completed via %s.", amount, paymentMethodLabel(input.Method)))
		if err != nil {
			return err
		}
		systemMessage = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.messaging.Broadcast(systemMessage)

	log.Printf("💰 Request %d paid: $%.2f via %s (transaction %d)", request.ID, amount, input.Method, transaction.ID)
	if s.events != nil {
		s.events.BroadcastRequestUpdate(request.ID, request.CustomerID, request.TechnicianID, models.StatusPaid)
	}
	return &transaction, nil
}

// paymentAmount picks the figure a settlement charges: the final price when
// the repair recorded one, otherwise the agreed price.
func paymentAmount(request *models.RepairRequest) float64 {
	if request.FinalPrice != nil && *request.FinalPrice > 0 {
		return *request.FinalPrice
	}
	if request.AgreedPrice != nil && *request.AgreedPrice > 0 {
		return *request.AgreedPrice
	}
	return 0
}

// buildPaymentDetails validates the method payload and returns it as the
// stored JSON blob. Card numbers are reduced to their last four digits.
func buildPaymentDetails(input PaymentInput) (string, error) {
	switch input.Method {
	case models.PaymentMethodCard:
		digits := strings.ReplaceAll(strings.TrimSpace(input.CardNumber), " ", "")
		if len(digits) < 4 {
			return "", fmt.Errorf("%w: card number is required for card payments", ErrValidation)
		}
		return marshalDetails(models.CardPaymentDetails{
			CardType: strings.TrimSpace(input.CardType),
			LastFour: digits[len(digits)-4:],
		})
	case models.PaymentMethodGcash:
		if strings.TrimSpace(input.PhoneNumber) == "" || strings.TrimSpace(input.ReferenceNumber) == "" {
			return "", fmt.Errorf("%w: phone and reference numbers are required for GCash payments", ErrValidation)
		}
		return marshalDetails(models.GcashPaymentDetails{
			Method:          "GCash",
			PhoneNumber:     strings.TrimSpace(input.PhoneNumber),
			ReferenceNumber: strings.TrimSpace(input.ReferenceNumber),
		})
	case models.PaymentMethodCash:
		return marshalDetails(models.CashPaymentDetails{Method: "Cash on Hand"})
	default:
		return "", fmt.Errorf("%w: unsupported payment method %q", ErrValidation, input.Method)
	}
}

func marshalDetails(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// paymentNotification targets the party that did not initiate the
// settlement.
func paymentNotification(request *models.RepairRequest, method models.PaymentMethod, amount float64) *NotificationIntent {
	if method == models.PaymentMethodCash {
		return &NotificationIntent{
			UserID:  request.CustomerID,
			Title:   "Cash Payment Confirmed",
			Message: fmt.Sprintf("Your cash payment of $%.2f for %s repair has been confirmed.", amount, request.DeviceType),
			Type:    "payment_confirmed",
		}
	}
	return &NotificationIntent{
		UserID:  *request.TechnicianID,
		Title:   "Payment Received",
		Message: fmt.Sprintf("Payment of $%.2f received for %s repair.", amount, request.DeviceType),
		Type:    "payment_received",
	}
}

func paymentMethodLabel(method models.PaymentMethod) string {
	switch method {
	case models.PaymentMethodCard:
		return "card"
	case models.PaymentMethodGcash:
		return "GCash"
	case models.PaymentMethodCash:
		return "cash on hand"
	default:
		return string(method)
	}
}

// generateInvoiceNumber derives an invoice number from the payment instant.
func generateInvoiceNumber(at time.Time) string {
	ms := at.UnixMilli()
	return fmt.Sprintf("INV-%06d", ms%1000000)
}

// GetTransaction returns a settlement visible to one of its parties.
func (s *PaymentService) GetTransaction(actor Actor, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.First(&transaction, transactionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if transaction.CustomerID != actor.UserID && transaction.TechnicianID != actor.UserID {
		return nil, ErrNotParticipant
	}
	return &transaction, nil
}

// ListTransactions returns the user's settlements, newest first.
func (s *PaymentService) ListTransactions(userID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.Where("customer_id = ? OR technician_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

// GetInvoice returns the invoice of a settlement visible to one of its
// parties.
func (s *PaymentService) GetInvoice(actor Actor, transactionID uint) (*models.Invoice, error) {
	if _, err := s.GetTransaction(actor, transactionID); err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := s.db.Where("transaction_id = ?", transactionID).First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}
