package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationTypeOrderPlaced   = "order_placed"
	NotificationTypeOrderStatus   = "order_status"
	NotificationTypePaymentFailed = "payment_failed"
	NotificationTypeCartReminder  = "cart_reminder"
	NotificationTypeAnnouncement  = "announcement"
)

// Notification is the persisted copy of a dispatched event. Rows are
// append-only except for the read flag, which only the owning user flips.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type      string         `gorm:"type:varchar(50);not null;index" json:"type" validate:"oneof=order_placed order_status payment_failed cart_reminder announcement"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	URL       string         `gorm:"type:varchar(500)" json:"url"`
	Data      datatypes.JSON `gorm:"type:json" json:"data,omitempty"`
	IsRead    bool           `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// MarkAsRead flips the read flag, the only mutation a Notification allows.
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}
