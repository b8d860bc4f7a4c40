package repository

import (
	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// GetByID retrieves an order with its items
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LinkTransaction sets the order's transaction reference after both rows exist
func (r *orderRepository) LinkTransaction(orderID, transactionID uint) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("transaction_id", transactionID).Error
}
