package models

import "time"

// MaxCartReminders caps how many times one idle cart is nagged.
const MaxCartReminders = 3

// CartReminderTracking records per-user idle-cart state. Cart activity events
// upsert LastCartActivity; the reminder job advances RemindersSent 0..3 and
// resets the row only when the cart turns out to be empty.
type CartReminderTracking struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	LastCartActivity *time.Time `gorm:"type:timestamp;default:null;index" json:"last_cart_activity,omitempty"`
	RemindersSent    int        `gorm:"not null;default:0" json:"reminders_sent"`
	LastReminderAt   *time.Time `gorm:"type:timestamp;default:null" json:"last_reminder_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
