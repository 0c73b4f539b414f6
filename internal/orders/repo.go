package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order row. The database assigns order_number; it is read back
// when the driver does not return it from the insert.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, errors.New("order is required")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = enums.PaymentStatusPending
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	if order.OrderNumber == 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Select("order_number").
			Where("id = ?", order.ID).
			Scan(&order.OrderNumber).Error; err != nil {
			return nil, fmt.Errorf("read order number: %w", err)
		}
	}
	if order.OrderNumber == 0 {
		return nil, errors.New("order number was not assigned")
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return errors.New("order items are required")
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		if items[i].OrderID == uuid.Nil {
			return errors.New("order item missing order id")
		}
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateCouponUsage(ctx context.Context, usage *models.CouponUsage) error {
	if usage == nil {
		return errors.New("coupon usage is required")
	}
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(usage).Error
}

// DeleteOrder removes an order together with any items and usage rows that reference it.
func (r *repository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.CouponUsage{}).Error; err != nil {
		return fmt.Errorf("delete coupon usages: %w", err)
	}
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := db.Where("id = ?", orderID).Delete(&models.Order{}).Error; err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (r *repository) DeleteCouponUsage(ctx context.Context, couponID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("coupon_id = ? AND order_id = ?", couponID, orderID).
		Delete(&models.CouponUsage{}).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
