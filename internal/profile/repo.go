package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Store is the read-only profile surface used to pre-fill checkout.
type Store interface {
	GetDefaultAddress(ctx context.Context, userID uuid.UUID) (*types.ShippingAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a profile store bound to the provided DB.
func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

// GetDefaultAddress merges the shopper's profile with their default saved address. It returns
// nil when neither exists; a profile without an address still yields contact details.
func (r *repository) GetDefaultAddress(ctx context.Context, userID uuid.UUID) (*types.ShippingAddress, error) {
	var profile models.Profile
	profileErr := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error
	if profileErr != nil && !errors.Is(profileErr, gorm.ErrRecordNotFound) {
		return nil, profileErr
	}

	var address models.Address
	addressErr := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		Order("updated_at DESC").
		First(&address).Error
	if addressErr != nil && !errors.Is(addressErr, gorm.ErrRecordNotFound) {
		return nil, addressErr
	}

	hasProfile := profileErr == nil
	hasAddress := addressErr == nil
	if !hasProfile && !hasAddress {
		return nil, nil
	}

	out := types.ShippingAddress{}
	if hasProfile {
		out.FirstName = profile.FirstName
		out.LastName = profile.LastName
		out.Email = profile.Email
		if profile.Phone != nil {
			out.Phone = *profile.Phone
		}
	}
	if hasAddress {
		out.AddressText = address.AddressText
		out.City = address.City
		if address.Area != nil {
			out.Area = *address.Area
		}
		if address.Phone != nil && *address.Phone != "" {
			out.Phone = *address.Phone
		}
	}
	normalized := out.Normalized()
	return &normalized, nil
}
