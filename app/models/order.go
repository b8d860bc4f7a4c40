package models

import "time"

const (
	OrderStatusPlaced    = "placed"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UUID           string      `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID         uint        `gorm:"not null;index" json:"user_id"`
	User           User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status         string      `gorm:"type:varchar(32);not null;default:'placed';index" json:"status"`
	ItemsTotal     float64     `gorm:"type:decimal(12,2);not null" json:"items_total"`
	ShippingTotal  float64     `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_total"`
	GrandTotal     float64     `gorm:"type:decimal(12,2);not null" json:"grand_total"`
	TransactionID  *uint       `gorm:"default:null;index" json:"transaction_id,omitempty"`
	Transaction    *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Items          []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt      time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice float64   `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
