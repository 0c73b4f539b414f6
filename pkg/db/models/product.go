package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog row the cart joins against for unit prices and bilingual names.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	NameEN    string          `gorm:"column:name_en;not null"`
	NameAR    string          `gorm:"column:name_ar;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,3);not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariation is an optional variant of a product. A set Price overrides the product price.
type ProductVariation struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	NameEN    string              `gorm:"column:name_en;not null"`
	NameAR    string              `gorm:"column:name_ar;not null"`
	Price     decimal.NullDecimal `gorm:"column:price;type:numeric(12,3)"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
