package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Coupon is a discount code. CurrentUses is only ever changed by conditional updates.
type Coupon struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string              `gorm:"column:code;not null;uniqueIndex"`
	DiscountType      enums.DiscountType  `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue     decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,3);not null"`
	MinOrderAmount    decimal.Decimal     `gorm:"column:min_order_amount;type:numeric(12,3);not null;default:0"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"column:max_discount_amount;type:numeric(12,3)"`
	MaxUses           *int                `gorm:"column:max_uses"`
	CurrentUses       int                 `gorm:"column:current_uses;not null;default:0"`
	ValidFrom         *time.Time          `gorm:"column:valid_from"`
	ValidUntil        *time.Time          `gorm:"column:valid_until"`
	IsActive          bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponUsage records that a coupon was consumed by an order.
type CouponUsage struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID        uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	DiscountApplied decimal.Decimal `gorm:"column:discount_applied;type:numeric(12,3);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
