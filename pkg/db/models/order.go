package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Order is created once per successful checkout commit. OrderNumber is assigned by the database.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64                 `gorm:"column:order_number;not null;default:nextval('order_number_seq')"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,3);not null"`
	ShippingCost    decimal.Decimal       `gorm:"column:shipping_cost;type:numeric(12,3);not null"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,3);not null;default:0"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,3);not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	BillingAddress  types.ShippingAddress `gorm:"column:billing_address;type:jsonb;serializer:json;not null"`
	ShippingMethod  enums.DeliveryOption  `gorm:"column:shipping_method;type:delivery_option;not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	Language        enums.Language        `gorm:"column:language;type:text;not null;default:'ar'"`
	CouponID        *uuid.UUID            `gorm:"column:coupon_id;type:uuid"`
	Notes           *string               `gorm:"column:notes"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a cart line at commit time. Prices are never re-read afterwards.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariationID   *uuid.UUID      `gorm:"column:variation_id;type:uuid"`
	ProductName   string          `gorm:"column:product_name;not null"`
	VariationName *string         `gorm:"column:variation_name"`
	Quantity      int             `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,3);not null"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:numeric(12,3);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
