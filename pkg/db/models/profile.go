package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds shopper identity fields used to pre-fill checkout.
type Profile struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FirstName         string    `gorm:"column:first_name;not null;default:''"`
	LastName          string    `gorm:"column:last_name;not null;default:''"`
	Email             string    `gorm:"column:email;not null"`
	Phone             *string   `gorm:"column:phone"`
	PreferredLanguage string    `gorm:"column:preferred_language;not null;default:'ar'"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Address is a saved shopper address. At most one per user is marked default.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Phone       *string   `gorm:"column:phone"`
	AddressText string    `gorm:"column:address_text;not null"`
	City        string    `gorm:"column:city;not null"`
	Area        *string   `gorm:"column:area"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
