package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"repair-match-server/database"
	"repair-match-server/models"
)

// RegisterNotificationRoutes registers notification routes
func RegisterNotificationRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.GET("", listNotifications)
	notifications.GET("/unread-count", getUnreadCount)
	notifications.PATCH("/:id/read", markNotificationRead)
	notifications.PATCH("/read-all", markAllNotificationsRead)
}

// listNotifications returns the caller's notifications, newest first
func listNotifications(c *gin.Context) {
	user := currentUser(c)

	query := database.DB.Where("user_id = ?", user.ID).Order("created_at DESC")
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Limit(100).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Query failed",
			"message": "Failed to load notifications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// getUnreadCount returns the caller's unread notification count
func getUnreadCount(c *gin.Context) {
	user := currentUser(c)

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Query failed",
			"message": "Failed to count notifications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// markNotificationRead marks one of the caller's notifications as read
func markNotificationRead(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid notification ID",
			"message": "Notification ID must be a number",
		})
		return
	}

	now := time.Now()
	res := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, user.ID).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Update failed",
			"message": "Failed to mark notification as read",
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Notification not found",
			"message": "No notification with this ID",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// markAllNotificationsRead clears the caller's unread badge
func markAllNotificationsRead(c *gin.Context) {
	user := currentUser(c)

	now := time.Now()
	res := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Update failed",
			"message": "Failed to mark notifications as read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "All notifications marked as read",
		"markedCount": res.RowsAffected,
	})
}
