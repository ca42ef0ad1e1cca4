package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repair-match-server/database"
	"repair-match-server/models"
	"repair-match-server/services"
)

// ServiceRequestBody carries the customer's negotiated price offer
type ServiceRequestBody struct {
	AgreedPrice float64 `json:"agreedPrice" binding:"required"`
}

// ProgressBody carries a repair progress update
type ProgressBody struct {
	Percentage int    `json:"percentage" binding:"required"`
	Text       string `json:"text"`
}

// CompleteBody carries the final repair report
type CompleteBody struct {
	FinalPrice      float64  `json:"finalPrice" binding:"required"`
	CompletionNotes string   `json:"completionNotes"`
	RepairDuration  *float64 `json:"repairDuration"`
}

// RegisterRequestRoutes registers repair request routes
func RegisterRequestRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	requests.POST("", createRequest)
	requests.GET("", listRequests)
	requests.GET("/:id", getRequest)

	requests.POST("/:id/accept", transitionHandler(services.EventAccept, nil))
	requests.POST("/:id/negotiate", transitionHandler(services.EventStartNegotiation, nil))
	requests.POST("/:id/deny", transitionHandler(services.EventDeny, nil))
	requests.POST("/:id/approve", transitionHandler(services.EventCustomerApprove, nil))
	requests.POST("/:id/decline", transitionHandler(services.EventDecline, nil))
	requests.POST("/:id/start", transitionHandler(services.EventStartRepair, nil))
	requests.POST("/:id/cancel", transitionHandler(services.EventCancel, nil))

	requests.POST("/:id/service-request", sendServiceRequest)
	requests.POST("/:id/progress", updateProgress)
	requests.POST("/:id/complete", completeRepair)
}

// createRequest submits a new repair request
func createRequest(c *gin.Context) {
	var create models.RepairRequestCreate
	if err := c.ShouldBindJSON(&create); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	request, err := lifecycleService.Submit(currentActor(c), create)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Repair request submitted",
		"request": request,
	})
}

// listRequests returns the caller's requests. Technicians can pass
// ?scope=open to browse unclaimed pending requests instead.
func listRequests(c *gin.Context) {
	user := currentUser(c)

	query := database.DB.Preload("ProgressUpdates")

	if user.IsTechnician() && c.Query("scope") == "open" {
		// open pool: unclaimed pending work, emergencies first
		query = query.
			Where("status = ? AND technician_id IS NULL", models.StatusPending).
			Order("emergency DESC, created_at ASC")
	} else if user.IsTechnician() {
		query = query.
			Where("technician_id = ?", user.ID).
			Order("created_at DESC")
	} else {
		query = query.
			Where("customer_id = ?", user.ID).
			Order("created_at DESC")
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.RepairRequest
	if err := query.Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Query failed",
			"message": "Failed to load repair requests",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// getRequest returns one request visible to its participants. Open pending
// requests are visible to any technician browsing for work.
func getRequest(c *gin.Context) {
	user := currentUser(c)

	request, ok := loadRequest(c)
	if !ok {
		return
	}

	isParticipant := request.HasParticipant(user.ID)
	isBrowsable := user.IsTechnician() && request.Status == models.StatusPending && request.TechnicianID == nil

	if !isParticipant && !isBrowsable {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You are not a participant of this request",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// transitionHandler builds a handler for payload-less lifecycle events
func transitionHandler(event services.Event, params *services.TransitionParams) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requestIDParam(c)
		if !ok {
			return
		}

		p := services.TransitionParams{}
		if params != nil {
			p = *params
		}

		request, err := lifecycleService.Transition(id, event, currentActor(c), p)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Request updated",
			"request": request,
		})
	}
}

// sendServiceRequest forwards the customer's negotiated offer
func sendServiceRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var body ServiceRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "agreedPrice is required",
		})
		return
	}

	request, err := lifecycleService.Transition(id, services.EventSendServiceRequest, currentActor(c),
		services.TransitionParams{AgreedPrice: &body.AgreedPrice})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Service request sent",
		"request": request,
	})
}

// updateProgress records a repair progress step
func updateProgress(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var body ProgressBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "percentage is required",
		})
		return
	}

	request, err := lifecycleService.Transition(id, services.EventUpdateProgress, currentActor(c),
		services.TransitionParams{Percentage: body.Percentage, ProgressText: body.Text})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Progress updated",
		"request": request,
	})
}

// completeRepair closes out the repair work
func completeRepair(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var body CompleteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "finalPrice is required",
		})
		return
	}

	request, err := lifecycleService.Transition(id, services.EventCompleteRepair, currentActor(c),
		services.TransitionParams{
			FinalPrice:      &body.FinalPrice,
			CompletionNotes: body.CompletionNotes,
			RepairDuration:  body.RepairDuration,
		})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Repair completed",
		"request": request,
	})
}

// requestIDParam parses the :id path parameter
func requestIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request ID",
			"message": "Request ID must be a number",
		})
		return 0, false
	}
	return uint(id), true
}

// loadRequest fetches the request with its progress history
func loadRequest(c *gin.Context) (*models.RepairRequest, bool) {
	id, ok := requestIDParam(c)
	if !ok {
		return nil, false
	}

	var request models.RepairRequest
	if err := database.DB.Preload("ProgressUpdates").First(&request, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Request not found",
			"message": "No repair request with this ID",
		})
		return nil, false
	}
	return &request, true
}
