package repository

import (
	"strings"

	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDeliveryTarget resolves a user to the minimal projection used for
// addressing notifications. Inactive and soft-deleted users do not resolve.
func (r *userRepository) GetDeliveryTarget(userID uint) (*models.DeliveryTarget, error) {
	var target models.DeliveryTarget
	err := r.db.Model(&models.User{}).
		Select("id AS user_id", "name", "email").
		Where("id = ? AND status = ?", userID, models.STATUS_ACTIVE).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// ListDeliveryTargetsByRole returns the delivery projection for every active,
// non-deleted user holding the given role.
func (r *userRepository) ListDeliveryTargetsByRole(role string) ([]models.DeliveryTarget, error) {
	var targets []models.DeliveryTarget
	err := r.db.Model(&models.User{}).
		Select("id AS user_id", "name", "email").
		Where("role = ? AND status = ?", role, models.STATUS_ACTIVE).
		Order("id ASC").
		Find(&targets).Error
	return targets, err
}
