package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// Repository defines persistence operations for orders, their items and coupon usage rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreateCouponUsage(ctx context.Context, usage *models.CouponUsage) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	DeleteCouponUsage(ctx context.Context, couponID, orderID uuid.UUID) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}
