package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repair-match-server/database"
	"repair-match-server/models"
	"repair-match-server/websocket"
)

// RegisterChatRoutes registers chat and messaging routes
func RegisterChatRoutes(router *gin.RouterGroup) {
	chats := router.Group("/chats")
	chats.GET("", listChats)
	chats.GET("/:id", getChat)
	chats.GET("/:id/messages", listMessages)
	chats.POST("/:id/messages", postMessage)
	chats.POST("/direct", openDirectChat)
	chats.POST("/request/:requestId", openRequestChat)
}

// RegisterWebSocketRoutes registers the live messaging endpoint
func RegisterWebSocketRoutes(router *gin.RouterGroup) {
	router.GET("/chat", func(c *gin.Context) {
		user := currentUser(c)
		websocket.ServeWebSocket(hub, c.Writer, c.Request, user.ID, string(user.UserType))
	})
}

// listChats returns the caller's chats, most recently active first
func listChats(c *gin.Context) {
	user := currentUser(c)

	chats, err := messagingService.ListChats(user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chats": chats,
		"count": len(chats),
	})
}

// getChat returns one chat the caller participates in
func getChat(c *gin.Context) {
	id, ok := chatIDParam(c)
	if !ok {
		return
	}

	chat, err := messagingService.GetChat(id, currentActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat":             chat,
		"customerOnline":   hub.IsUserConnected(chat.CustomerID),
		"technicianOnline": hub.IsUserConnected(chat.TechnicianID),
	})
}

// listMessages returns a chat's messages oldest first
func listMessages(c *gin.Context) {
	id, ok := chatIDParam(c)
	if !ok {
		return
	}

	messages, err := messagingService.ListMessages(id, currentActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// postMessage appends a message to a chat
func postMessage(c *gin.Context) {
	id, ok := chatIDParam(c)
	if !ok {
		return
	}

	var body models.MessageCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "text is required",
		})
		return
	}

	message, err := messagingService.PostMessage(id, currentActor(c), body.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    message,
	})
}

// openDirectChat opens (or returns) the request-less chat between the
// customer and a technician
func openDirectChat(c *gin.Context) {
	user := currentUser(c)

	var body struct {
		TechnicianID uint `json:"technicianId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "technicianId is required",
		})
		return
	}

	if !user.IsCustomer() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "Only customers open direct chats",
		})
		return
	}

	chat, err := messagingService.GetOrCreateDirectChat(user.ID, body.TechnicianID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// openRequestChat opens (or returns) the chat bound to a repair request
func openRequestChat(c *gin.Context) {
	user := currentUser(c)

	requestID, err := strconv.ParseUint(c.Param("requestId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request ID",
			"message": "Request ID must be a number",
		})
		return
	}

	// authorize against the request before any chat row is created
	var request models.RepairRequest
	if err := database.DB.First(&request, uint(requestID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Repair request not found",
		})
		return
	}
	if !request.HasParticipant(user.ID) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You are not a participant of this request",
		})
		return
	}

	chat, serr := messagingService.GetOrCreateChatForRequest(uint(requestID))
	if serr != nil {
		respondServiceError(c, serr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

func chatIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid chat ID",
			"message": "Chat ID must be a number",
		})
		return 0, false
	}
	return uint(id), true
}
