package repository

import (
	"time"

	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reminderRepository implements the ReminderRepository interface
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder tracking repository instance
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// TouchActivity upserts the last-cart-activity timestamp for a user. Called
// from cart-activity events; a fresh touch does not reset the reminder count.
func (r *reminderRepository) TouchActivity(userID uint, at time.Time) error {
	tracking := &models.CartReminderTracking{
		UserID:           userID,
		LastCartActivity: &at,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_cart_activity",
			"updated_at",
		}),
	}).Create(tracking).Error
}

// FindEligible returns trackings whose cart has been idle since before
// idleSince and which have not yet exhausted their reminder budget.
func (r *reminderRepository) FindEligible(idleSince time.Time, maxSent int) ([]models.CartReminderTracking, error) {
	var trackings []models.CartReminderTracking
	err := r.db.
		Where("last_cart_activity IS NOT NULL AND last_cart_activity < ? AND reminders_sent < ?", idleSince, maxSent).
		Order("last_cart_activity ASC").
		Find(&trackings).Error
	return trackings, err
}

// Reset clears a tracking back to its empty-cart state
func (r *reminderRepository) Reset(userID uint) error {
	return r.db.Model(&models.CartReminderTracking{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_cart_activity": nil,
			"reminders_sent":     0,
		}).Error
}

// MarkReminded increments the reminder count and stamps the send time
func (r *reminderRepository) MarkReminded(tracking *models.CartReminderTracking, at time.Time) error {
	tracking.RemindersSent++
	tracking.LastReminderAt = &at
	return r.db.Model(tracking).Updates(map[string]interface{}{
		"reminders_sent":   tracking.RemindersSent,
		"last_reminder_at": at,
	}).Error
}
