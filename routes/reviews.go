package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repair-match-server/models"
)

// RegisterReviewRoutes registers review routes
func RegisterReviewRoutes(router *gin.RouterGroup) {
	router.POST("/requests/:id/review", submitReview)
	router.GET("/requests/:id/review", getRequestReview)
	router.GET("/technicians/:id/reviews", listTechnicianReviews)
}

// submitReview files the customer's review for a paid repair
func submitReview(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var create models.ReviewCreate
	if err := c.ShouldBindJSON(&create); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "rating between 1 and 5 is required",
		})
		return
	}

	review, err := reviewService.SubmitReview(currentActor(c), id, create)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review submitted",
		"review":  review,
	})
}

// getRequestReview returns the review filed against a request
func getRequestReview(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	review, err := reviewService.GetRequestReview(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// listTechnicianReviews returns a technician's reviews, newest first
func listTechnicianReviews(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid technician ID",
			"message": "Technician ID must be a number",
		})
		return
	}

	reviews, serr := reviewService.ListTechnicianReviews(uint(id))
	if serr != nil {
		respondServiceError(c, serr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}
