package repository

import (
	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
)

// cartRepository implements the CartRepository interface
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository instance
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// CountItemsForUser sums the item quantities in a user's cart. A missing cart
// counts as empty.
func (r *cartRepository) CountItemsForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Select("COALESCE(SUM(cart_items.quantity), 0)").
		Scan(&count).Error
	return count, err
}
