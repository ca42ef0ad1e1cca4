package services

import (
	"fmt"
	"log"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"repair-match-server/models"
)

// ReviewService records one customer review per paid repair and keeps the
// technician's aggregate rating in step.
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// SubmitReview files the customer's review for a paid repair. The review
// row, the request's review back-reference and the technician's recomputed
// average all land in one transaction.
func (s *ReviewService) SubmitReview(actor Actor, requestID uint, create models.ReviewCreate) (*models.Review, error) {
	if actor.Role != models.UserTypeCustomer {
		return nil, fmt.Errorf("%w: only customers submit reviews", ErrWrongActor)
	}
	if create.Rating < 1 || create.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	var request models.RepairRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.CustomerID != actor.UserID {
		return nil, fmt.Errorf("%w: request belongs to another customer", ErrNotParticipant)
	}
	if request.Status != models.StatusPaid {
		return nil, fmt.Errorf("%w: reviews require a paid repair, request %d is %s", ErrInvalidTransition, requestID, request.Status)
	}
	if request.HasReview {
		return nil, ErrAlreadyReviewed
	}

	review := models.Review{
		RequestID:    request.ID,
		CustomerID:   request.CustomerID,
		CustomerName: request.CustomerName,
		TechnicianID: *request.TechnicianID,
		Rating:       create.Rating,
		Review:       strings.TrimSpace(create.Review),
		DeviceType:   request.DeviceType,
		Status:       "active",
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// The has_review guard makes double submission lose the race
		// instead of skewing the average.
		res := tx.Model(&models.RepairRequest{}).
			Where("id = ? AND has_review = ?", request.ID, false).
			Updates(map[string]interface{}{
				"has_review": true,
				"rating":     create.Rating,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}

		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.RepairRequest{}).Where("id = ?", request.ID).
			Update("review_id", review.ID).Error; err != nil {
			return err
		}

		var technician models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&technician, *request.TechnicianID).Error; err != nil {
			return err
		}

		newAvg := RecomputeRating(technician.Rating, technician.NumberOfRatings, create.Rating)
		if err := tx.Model(&models.User{}).Where("id = ?", technician.ID).
			Updates(map[string]interface{}{
				"rating":            newAvg,
				"number_of_ratings": technician.NumberOfRatings + 1,
				"last_rating_date":  review.CreatedAt,
			}).Error; err != nil {
			return err
		}

		intent := &NotificationIntent{
			UserID:  technician.ID,
			Title:   "New Rating Received",
			Message: fmt.Sprintf("You received a %d-star rating for your %s repair!", create.Rating, request.DeviceType),
			Type:    "rating_received",
		}
		return createNotification(tx, intent, request.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("⭐ Review %d filed for request %d: %d stars", review.ID, request.ID, create.Rating)
	return &review, nil
}

// RecomputeRating folds one new rating into a running average, rounded to
// two decimals.
func RecomputeRating(oldAvg float64, oldCount int, newRating int) float64 {
	avg := (oldAvg*float64(oldCount) + float64(newRating)) / float64(oldCount+1)
	return math.Round(avg*100) / 100
}

// ListTechnicianReviews returns a technician's active reviews, newest
// first.
func (s *ReviewService) ListTechnicianReviews(technicianID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Where("technician_id = ? AND status = ?", technicianID, "active").
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// GetRequestReview returns the review filed against a request, if any.
func (s *ReviewService) GetRequestReview(requestID uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.Where("request_id = ?", requestID).First(&review).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}
