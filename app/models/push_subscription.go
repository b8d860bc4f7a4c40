package models

import "time"

// PushSubscription is one browser/device push endpoint for a user. The
// endpoint URL is the natural key: when a device resubscribes after a
// provider-initiated rotation the new registration overwrites owner and keys
// instead of creating a duplicate.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Endpoint  string    `gorm:"type:varchar(500);not null;uniqueIndex:ux_push_subscriptions_endpoint,length:191" json:"endpoint"`
	P256dh    string    `gorm:"type:varchar(255);not null" json:"p256dh"`
	Auth      string    `gorm:"type:varchar(255);not null" json:"auth"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
