package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/internal/pkg/gateway"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Placer creates order rows from a decoded order detail. It stands in for the
// storefront's catalog service, which owns pricing beyond the totals the
// committer hands over.
type Placer struct {
	db *gorm.DB
}

func NewPlacer(db *gorm.DB) *Placer {
	return &Placer{db: db}
}

// PlaceOrder persists the order with its line items in one database
// transaction and returns the new order id.
func (p *Placer) PlaceOrder(ctx context.Context, userID uint, detail *gateway.OrderDetail, extra *gateway.ExtraDetail) (uint, error) {
	if detail == nil || len(detail.Items) == 0 {
		return 0, errors.New("order detail carries no items")
	}

	itemsTotal := 0.0
	items := make([]models.OrderItem, 0, len(detail.Items))
	for _, item := range detail.Items {
		if item.Quantity <= 0 {
			return 0, fmt.Errorf("item %d has non-positive quantity", item.ProductID)
		}
		itemsTotal += item.UnitPrice * float64(item.Quantity)
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order := &models.Order{
		UUID:          uuid.NewString(),
		UserID:        userID,
		Status:        models.OrderStatusPlaced,
		ItemsTotal:    itemsTotal,
		ShippingTotal: detail.ShippingTotal,
		GrandTotal:    itemsTotal + detail.ShippingTotal,
		Items:         items,
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}
