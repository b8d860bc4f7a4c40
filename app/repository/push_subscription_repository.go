package repository

import (
	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pushSubscriptionRepository implements the PushSubscriptionRepository interface
type pushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPushSubscriptionRepository creates a new push subscription repository instance
func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

// Upsert registers a device endpoint. The endpoint is the natural key: a
// resubscription overwrites owner and key material instead of duplicating.
func (r *pushSubscriptionRepository) Upsert(sub *models.PushSubscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "endpoint"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"p256dh",
			"auth",
			"user_id",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.Where("endpoint = ?", sub.Endpoint).First(sub).Error
}

// ListForUser returns every registered endpoint for one user
func (r *pushSubscriptionRepository) ListForUser(userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

// RemoveByEndpoint deletes a subscription, used by explicit unsubscribe and by
// the dispatcher when a delivery reports the endpoint gone
func (r *pushSubscriptionRepository) RemoveByEndpoint(endpoint string) error {
	return r.db.Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
}
