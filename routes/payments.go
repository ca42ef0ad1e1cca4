package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repair-match-server/models"
	"repair-match-server/services"
)

// RegisterPaymentRoutes registers payment and invoice routes
func RegisterPaymentRoutes(router *gin.RouterGroup) {
	router.POST("/requests/:id/pay", payRequest)
	router.POST("/requests/:id/confirm-cash", confirmCashPayment)

	transactions := router.Group("/transactions")
	transactions.GET("", listTransactions)
	transactions.GET("/:id", getTransaction)
	transactions.GET("/:id/invoice", getInvoice)
}

// payRequest settles a completed repair with card or GCash
func payRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var input services.PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "method is required",
		})
		return
	}

	if !models.IsValidPaymentMethod(input.Method) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid payment method",
			"message": "method must be card, cash or gcash",
		})
		return
	}

	transaction, err := paymentService.Pay(currentActor(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Payment completed",
		"transaction": transaction,
	})
}

// confirmCashPayment settles a completed repair paid in cash
func confirmCashPayment(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	transaction, err := paymentService.ConfirmCashPayment(currentActor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Cash payment confirmed",
		"transaction": transaction,
	})
}

// listTransactions returns the caller's settlements, newest first
func listTransactions(c *gin.Context) {
	user := currentUser(c)

	transactions, err := paymentService.ListTransactions(user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// getTransaction returns one settlement visible to its parties
func getTransaction(c *gin.Context) {
	id, ok := transactionIDParam(c)
	if !ok {
		return
	}

	transaction, err := paymentService.GetTransaction(currentActor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// getInvoice returns the invoice for a settlement
func getInvoice(c *gin.Context) {
	id, ok := transactionIDParam(c)
	if !ok {
		return
	}

	invoice, err := paymentService.GetInvoice(currentActor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func transactionIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid transaction ID",
			"message": "Transaction ID must be a number",
		})
		return 0, false
	}
	return uint(id), true
}
