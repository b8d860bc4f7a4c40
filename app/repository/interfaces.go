package repository

import (
	"time"

	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetDeliveryTarget(userID uint) (*models.DeliveryTarget, error)
	ListDeliveryTargetsByRole(role string) ([]models.DeliveryTarget, error)
}

// TransactionRepository defines the interface for payment transaction records
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	GetByGatewayTxnID(gatewayTxnID string) (*models.Transaction, error)
	UpdateStatus(id uint, status string) error
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	LinkTransaction(orderID, transactionID uint) error
}

// PushSubscriptionRepository defines the interface for per-device push endpoints
type PushSubscriptionRepository interface {
	Upsert(sub *models.PushSubscription) error
	ListForUser(userID uint) ([]models.PushSubscription, error)
	RemoveByEndpoint(endpoint string) error
}

// NotificationRepository defines the interface for the notification log
type NotificationRepository interface {
	Create(notification *models.Notification) error
	ListForUser(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkAsRead(userID, notificationID uint) error
	MarkAllAsRead(userID uint) error
}

// ReminderRepository defines the interface for idle-cart reminder tracking
type ReminderRepository interface {
	TouchActivity(userID uint, at time.Time) error
	FindEligible(idleSince time.Time, maxSent int) ([]models.CartReminderTracking, error)
	Reset(userID uint) error
	MarkReminded(tracking *models.CartReminderTracking, at time.Time) error
}

// CartRepository defines the read-only cart access used by the reminder job
type CartRepository interface {
	CountItemsForUser(userID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User             UserRepository
	Transaction      TransactionRepository
	Order            OrderRepository
	PushSubscription PushSubscriptionRepository
	Notification     NotificationRepository
	Reminder         ReminderRepository
	Cart             CartRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:             NewUserRepository(db),
		Transaction:      NewTransactionRepository(db),
		Order:            NewOrderRepository(db),
		PushSubscription: NewPushSubscriptionRepository(db),
		Notification:     NewNotificationRepository(db),
		Reminder:         NewReminderRepository(db),
		Cart:             NewCartRepository(db),
	}
}
