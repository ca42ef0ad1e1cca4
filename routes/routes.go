package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"repair-match-server/database"
	"repair-match-server/middleware"
	"repair-match-server/models"
	"repair-match-server/services"
	"repair-match-server/websocket"
)

// Shared service instances wired once at startup
var (
	jwtService       *services.JWTService
	lifecycleService *services.LifecycleService
	messagingService *services.MessagingService
	paymentService   *services.PaymentService
	reviewService    *services.ReviewService
	hub              *websocket.Hub
)

// Setup wires the services and registers every route group.
func Setup(router *gin.Engine, wsHub *websocket.Hub) {
	hub = wsHub
	jwtService = services.NewJWTService()
	messagingService = services.NewMessagingService(database.DB, hub)
	lifecycleService = services.NewLifecycleService(database.DB, messagingService, hub)
	paymentService = services.NewPaymentService(database.DB, messagingService, hub)
	reviewService = services.NewReviewService(database.DB)

	hub.CanJoinChat = func(userID uint, chatID uint) bool {
		_, err := messagingService.GetChat(chatID, services.Actor{UserID: userID})
		return err == nil
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")

	auth := apiV1.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware())
	RegisterAuthRoutes(auth)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.POST("/auth/logout-all", logoutAll)
	RegisterUserRoutes(protected)
	RegisterRequestRoutes(protected)
	RegisterChatRoutes(protected)
	RegisterPaymentRoutes(protected)
	RegisterNotificationRoutes(protected)
	RegisterReviewRoutes(protected)

	ws := apiV1.Group("/ws")
	ws.Use(middleware.WebSocketAuthMiddleware())
	RegisterWebSocketRoutes(ws)
}

// currentUser returns the authenticated user set by the auth middleware.
func currentUser(c *gin.Context) models.User {
	return c.MustGet("user").(models.User)
}

// currentActor adapts the authenticated user for the service layer.
func currentActor(c *gin.Context) services.Actor {
	user := currentUser(c)
	return services.Actor{
		UserID: user.ID,
		Role:   user.UserType,
		Name:   user.Name,
	}
}

// respondServiceError maps service errors onto HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrNotParticipant), errors.Is(err, services.ErrWrongActor):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNoAgreedPrice):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Something went wrong, please try again",
		})
	}
}
