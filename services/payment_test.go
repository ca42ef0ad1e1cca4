package services

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repair-match-server/models"
)

func TestBuildPaymentDetailsCard(t *testing.T) {
	details, err := buildPaymentDetails(PaymentInput{
		Method:     models.PaymentMethodCard,
		CardType:   "Visa",
		CardNumber: "4111 1111 1111 1234",
	})
	require.NoError(t, err)

	var parsed models.CardPaymentDetails
	require.NoError(t, json.Unmarshal([]byte(details), &parsed))
	assert.Equal(t, "Visa", parsed.CardType)
	assert.Equal(t, "1234", parsed.LastFour)

	_, err = buildPaymentDetails(PaymentInput{Method: models.PaymentMethodCard})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = buildPaymentDetails(PaymentInput{Method: models.PaymentMethodCard, CardNumber: "12"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildPaymentDetailsGcash(t *testing.T) {
	details, err := buildPaymentDetails(PaymentInput{
		Method:          models.PaymentMethodGcash,
		PhoneNumber:     "09171234567",
		ReferenceNumber: "REF-99881",
	})
	require.NoError(t, err)

	var parsed models.GcashPaymentDetails
	require.NoError(t, json.Unmarshal([]byte(details), &parsed))
	assert.Equal(t, "GCash", parsed.Method)
	assert.Equal(t, "09171234567", parsed.PhoneNumber)
	assert.Equal(t, "REF-99881", parsed.ReferenceNumber)

	_, err = buildPaymentDetails(PaymentInput{Method: models.PaymentMethodGcash, PhoneNumber: "09171234567"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = buildPaymentDetails(PaymentInput{Method: models.PaymentMethodGcash, ReferenceNumber: "REF-1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildPaymentDetailsCash(t *testing.T) {
	details, err := buildPaymentDetails(PaymentInput{Method: models.PaymentMethodCash})
	require.NoError(t, err)

	var parsed models.CashPaymentDetails
	require.NoError(t, json.Unmarshal([]byte(details), &parsed))
	assert.Equal(t, "Cash on Hand", parsed.Method)
}

func TestBuildPaymentDetailsUnknownMethod(t *testing.T) {
	_, err := buildPaymentDetails(PaymentInput{Method: "bitcoin"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentAmountPrefersFinalPrice(t *testing.T) {
	req := &models.RepairRequest{AgreedPrice: floatPtr(100)}
	assert.Equal(t, 100.0, paymentAmount(req))

	req.FinalPrice = floatPtr(120)
	assert.Equal(t, 120.0, paymentAmount(req))

	assert.Equal(t, 0.0, paymentAmount(&models.RepairRequest{}))
}

func TestGenerateInvoiceNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^INV-\d{6}$`)

	now := time.Now()
	assert.Regexp(t, pattern, generateInvoiceNumber(now))

	// stable for a fixed instant
	at := time.UnixMilli(1700000123456)
	assert.Equal(t, "INV-123456", generateInvoiceNumber(at))
	assert.Equal(t, generateInvoiceNumber(at), generateInvoiceNumber(at))
}

func TestPaymentNotificationTargets(t *testing.T) {
	req := &models.RepairRequest{
		CustomerID:   10,
		TechnicianID: uintPtr(20),
		DeviceType:   "Phone",
	}

	intent := paymentNotification(req, models.PaymentMethodCard, 80)
	assert.Equal(t, uint(20), intent.UserID)
	assert.Equal(t, "Payment Received", intent.Title)
	assert.Contains(t, intent.Message, "$80.00")

	intent = paymentNotification(req, models.PaymentMethodCash, 80)
	assert.Equal(t, uint(10), intent.UserID)
	assert.Equal(t, "Cash Payment Confirmed", intent.Title)
	assert.Contains(t, intent.Message, "Phone")
}
