package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// Store is the read and clear surface checkout needs from the cart.
type Store interface {
	WithTx(tx *gorm.DB) Store
	GetLines(ctx context.Context, userID uuid.UUID, lang enums.Language) ([]Line, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart store bound to the provided DB.
func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

type lineRow struct {
	ProductID       uuid.UUID           `gorm:"column:product_id"`
	VariationID     *uuid.UUID          `gorm:"column:variation_id"`
	Quantity        int                 `gorm:"column:quantity"`
	ProductPrice    decimal.Decimal     `gorm:"column:product_price"`
	VariationPrice  decimal.NullDecimal `gorm:"column:variation_price"`
	NameEN          string              `gorm:"column:name_en"`
	NameAR          string              `gorm:"column:name_ar"`
	VariationNameEN *string             `gorm:"column:variation_name_en"`
	VariationNameAR *string             `gorm:"column:variation_name_ar"`
}

const linesQuery = `
SELECT ci.product_id, ci.variation_id, ci.quantity,
       p.price AS product_price, pv.price AS variation_price,
       p.name_en, p.name_ar,
       pv.name_en AS variation_name_en, pv.name_ar AS variation_name_ar
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
LEFT JOIN product_variations pv ON pv.id = ci.variation_id
WHERE ci.user_id = ?
ORDER BY ci.created_at ASC, ci.id ASC`

// GetLines reads the cart joined against the catalog. Names are picked for lang and the
// variation price, when set, overrides the product price.
func (r *repository) GetLines(ctx context.Context, userID uuid.UUID, lang enums.Language) ([]Line, error) {
	var rows []lineRow
	if err := r.db.WithContext(ctx).Raw(linesQuery, userID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		price := row.ProductPrice
		if row.VariationPrice.Valid {
			price = row.VariationPrice.Decimal
		}
		if row.Quantity < 1 {
			return nil, fmt.Errorf("cart line %s has quantity %d", row.ProductID, row.Quantity)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("cart line %s has negative price", row.ProductID)
		}
		lines = append(lines, Line{
			ProductID:     row.ProductID,
			VariationID:   row.VariationID,
			Quantity:      row.Quantity,
			UnitPrice:     price,
			ProductName:   pickName(lang, row.NameEN, row.NameAR),
			VariationName: pickOptionalName(lang, row.VariationNameEN, row.VariationNameAR),
		})
	}
	return lines, nil
}

// Clear removes every cart line for the user.
func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func pickName(lang enums.Language, en, ar string) string {
	if lang == enums.LanguageEnglish {
		if en != "" {
			return en
		}
		return ar
	}
	if ar != "" {
		return ar
	}
	return en
}

func pickOptionalName(lang enums.Language, en, ar *string) *string {
	if en == nil && ar == nil {
		return nil
	}
	var enVal, arVal string
	if en != nil {
		enVal = *en
	}
	if ar != nil {
		arVal = *ar
	}
	name := pickName(lang, enVal, arVal)
	return &name
}
