package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"repair-match-server/database"
	"repair-match-server/models"
)

// CleanupJob prunes expired refresh tokens and stale read notifications
type CleanupJob struct {
	stopChan chan bool
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob() *CleanupJob {
	return &CleanupJob{
		stopChan: make(chan bool),
	}
}

// Start begins the cleanup job
func (j *CleanupJob) Start() {
	go j.run()
	log.Println("🚀 Cleanup job started")
}

// Stop stops the cleanup job
func (j *CleanupJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	// run once at startup so restarts don't accumulate garbage
	j.pruneRefreshTokens()
	j.pruneNotifications()

	for {
		select {
		case <-ticker.C:
			j.pruneRefreshTokens()
			j.pruneNotifications()
		case <-j.stopChan:
			return
		}
	}
}

func (j *CleanupJob) pruneRefreshTokens() {
	res := deleteExpiredRefreshTokens(database.DB)
	if res.Error != nil {
		log.Printf("❌ Error pruning refresh tokens: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 Pruned %d expired refresh tokens", res.RowsAffected)
	}
}

func (j *CleanupJob) pruneNotifications() {
	res := deleteStaleNotifications(database.DB)
	if res.Error != nil {
		log.Printf("❌ Error pruning notifications: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 Pruned %d old notifications", res.RowsAffected)
	}
}

// deleteExpiredRefreshTokens removes tokens that expired or were revoked.
func deleteExpiredRefreshTokens(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at <= ? OR is_revoked = ?", time.Now(), true).
		Delete(&models.RefreshToken{})
}

// deleteStaleNotifications removes read notifications older than 90 days.
// Unscoped is required: the notification model carries a deleted_at column,
// so a scoped delete would only mark rows and the table would grow forever.
func deleteStaleNotifications(db *gorm.DB) *gorm.DB {
	cutoff := time.Now().AddDate(0, 0, -90)
	return db.Unscoped().Where("read = ? AND created_at <= ?", true, cutoff).
		Delete(&models.Notification{})
}
