package routes

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"repair-match-server/config"
	"repair-match-server/database"
	"repair-match-server/middleware"
	"repair-match-server/models"
	"repair-match-server/utils"
)

// NearbyTechnician decorates a technician with their distance from the
// caller
type NearbyTechnician struct {
	models.User
	DistanceKm float64 `json:"distanceKm"`
}

// RegisterUserRoutes registers profile and technician routes
func RegisterUserRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.GET("/me", getProfile)
	users.PATCH("/me", updateProfile)

	technicians := router.Group("/technicians")
	technicians.GET("/nearby", getNearbyTechnicians)
	technicians.GET("/:id", getTechnician)

	me := technicians.Group("/me")
	me.Use(middleware.RequireUserType(models.UserTypeTechnician))
	me.PATCH("/availability", updateAvailability)
	me.PATCH("/location", updateLocation)
}

// getProfile returns the authenticated user's profile
func getProfile(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// updateProfile updates the editable profile fields
func updateProfile(c *gin.Context) {
	user := currentUser(c)

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.ContactNumber != nil {
		updates["contact_number"] = *req.ContactNumber
	}
	if req.AvatarEmoji != nil {
		updates["avatar_emoji"] = *req.AvatarEmoji
	}
	if req.AvatarColor != nil {
		updates["avatar_color"] = *req.AvatarColor
	}
	if user.IsTechnician() {
		if req.Specialties != nil {
			updates["specialties"] = models.StringList(*req.Specialties)
		}
		if req.Certifications != nil {
			updates["certifications"] = models.StringList(*req.Certifications)
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Nothing to update",
			"message": "Provide at least one editable field",
		})
		return
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Update failed",
			"message": "Failed to update profile",
		})
		return
	}

	var updated models.User
	database.DB.First(&updated, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

// getTechnician returns a technician's public profile
func getTechnician(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid technician ID",
			"message": "Technician ID must be a number",
		})
		return
	}

	var technician models.User
	if err := database.DB.Where("id = ? AND user_type = ?", id, models.UserTypeTechnician).
		First(&technician).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Technician not found",
			"message": "No technician with this ID",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"technician": technician})
}

// getNearbyTechnicians returns available technicians within the search
// radius, sorted nearest first
func getNearbyTechnicians(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || !utils.IsLocationValid(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid location",
			"message": "Valid lat and lng query parameters are required",
		})
		return
	}

	radiusKm := config.AppConfig.Matching.NearbyRadiusKm
	if v := c.Query("radiusKm"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= radiusKm*4 {
			radiusKm = parsed
		}
	}

	var technicians []models.User
	if err := database.DB.
		Where("user_type = ? AND is_available = ? AND is_active = ?", models.UserTypeTechnician, true, true).
		Where("location_lat IS NOT NULL AND location_lng IS NOT NULL").
		Find(&technicians).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Search failed",
			"message": "Failed to search for technicians",
		})
		return
	}

	nearby := make([]NearbyTechnician, 0)
	for _, t := range technicians {
		if !utils.IsLocationRecent(t.LastLocationUpdate) {
			continue
		}
		distance := utils.HaversineDistance(lat, lng, *t.LocationLat, *t.LocationLng)
		if distance <= radiusKm {
			nearby = append(nearby, NearbyTechnician{User: t, DistanceKm: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	c.JSON(http.StatusOK, gin.H{
		"technicians": nearby,
		"count":       len(nearby),
		"radiusKm":    radiusKm,
	})
}

// updateAvailability toggles whether the technician receives new requests
func updateAvailability(c *gin.Context) {
	user := currentUser(c)

	var req struct {
		IsAvailable *bool `json:"isAvailable" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "isAvailable is required",
		})
		return
	}

	if err := database.DB.Model(&user).Update("is_available", *req.IsAvailable).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Update failed",
			"message": "Failed to update availability",
		})
		return
	}

	log.Printf("👷 Technician %d availability: %v", user.ID, *req.IsAvailable)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Availability updated",
		"isAvailable": *req.IsAvailable,
	})
}

// updateLocation refreshes the technician's last known position
func updateLocation(c *gin.Context) {
	user := currentUser(c)

	var req models.TechnicianLocationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "latitude and longitude are required",
		})
		return
	}

	if !utils.IsLocationValid(req.Latitude, req.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid location",
			"message": "Coordinates are out of range",
		})
		return
	}

	now := time.Now()
	if err := database.DB.Model(&user).Updates(map[string]interface{}{
		"location_lat":         req.Latitude,
		"location_lng":         req.Longitude,
		"last_location_update": &now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Update failed",
			"message": "Failed to update location",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}
