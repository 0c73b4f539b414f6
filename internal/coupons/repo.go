package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// Repository is the coupon store. Usage counters only move through conditional updates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, couponID uuid.UUID) (bool, error)
	DecrementUsage(ctx context.Context, couponID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByCode looks the code up case-insensitively. A missing coupon yields (nil, nil).
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("UPPER(code) = ?", normalized).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsage consumes one use if the coupon is active and below max_uses. It reports
// false when no row qualified.
func (r *repository) IncrementUsage(ctx context.Context, couponID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND (max_uses IS NULL OR current_uses < max_uses)", couponID, true).
		UpdateColumns(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementUsage gives back one use. The counter never drops below zero.
func (r *repository) DecrementUsage(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND current_uses > 0", couponID).
		UpdateColumns(map[string]any{
			"current_uses": gorm.Expr("current_uses - 1"),
			"updated_at":   time.Now().UTC(),
		}).Error
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
