package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

func newOrder(userID uuid.UUID) *models.Order {
	addr := types.ShippingAddress{
		FirstName:   "Layla",
		LastName:    "Haddad",
		Email:       "layla@example.com",
		Phone:       "+96550000000",
		AddressText: "Block 3, Street 12",
		City:        "Kuwait City",
	}
	return &models.Order{
		UserID:          userID,
		Subtotal:        decimal.RequireFromString("50.000"),
		ShippingCost:    decimal.RequireFromString("3.000"),
		DiscountAmount:  decimal.Zero,
		TotalAmount:     decimal.RequireFromString("53.000"),
		ShippingAddress: addr,
		BillingAddress:  addr,
		ShippingMethod:  enums.DeliveryStandard,
		PaymentMethod:   enums.PaymentMethodCashOnDelivery,
		Language:        enums.LanguageEnglish,
	}
}

func newItem(orderID uuid.UUID, name string, qty int, unit string) models.OrderItem {
	price := decimal.RequireFromString(unit)
	return models.OrderItem{
		OrderID:     orderID,
		ProductID:   uuid.New(),
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   price,
		TotalPrice:  price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestCreateOrderAssignsNumberAndDefaults(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)
	second, err := repo.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.NotZero(t, first.OrderNumber)
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, first.Status)
	assert.Equal(t, enums.PaymentStatusPending, first.PaymentStatus)

	stored, err := repo.FindOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, stored.OrderNumber)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("53")))
	assert.Equal(t, "Kuwait City", stored.ShippingAddress.City)
}

func TestCreateOrderItemsSnapshotsLines(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)

	items := []models.OrderItem{
		newItem(order.ID, "Oud Perfume", 2, "20.000"),
		newItem(order.ID, "Incense", 1, "10.000"),
	}
	require.NoError(t, repo.CreateOrderItems(ctx, items))

	stored, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	total := decimal.Zero
	for _, item := range stored.Items {
		total = total.Add(item.TotalPrice)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("50")))
}

func TestCreateOrderItemsRejectsInvalidInput(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	assert.Error(t, repo.CreateOrderItems(ctx, nil))
	assert.Error(t, repo.CreateOrderItems(ctx, []models.OrderItem{newItem(uuid.Nil, "x", 1, "1")}))
}

func TestDeleteOrderRemovesDependents(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrderItems(ctx, []models.OrderItem{newItem(order.ID, "Oud", 1, "5.000")}))
	couponID := uuid.New()
	require.NoError(t, repo.CreateCouponUsage(ctx, &models.CouponUsage{
		CouponID:        couponID,
		UserID:          order.UserID,
		OrderID:         order.ID,
		DiscountApplied: decimal.RequireFromString("1.000"),
	}))

	require.NoError(t, repo.DeleteOrder(ctx, order.ID))

	assert.Zero(t, countRows(t, db, &models.Order{}, "id = ?", order.ID))
	assert.Zero(t, countRows(t, db, &models.OrderItem{}, "order_id = ?", order.ID))
	assert.Zero(t, countRows(t, db, &models.CouponUsage{}, "order_id = ?", order.ID))
}

func TestCouponUsageUniquePerOrder(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)
	usage := func() *models.CouponUsage {
		return &models.CouponUsage{CouponID: uuid.MustParse("6a0b6c2e-0c57-4a43-9a61-8d5f2c1f0a11"), UserID: order.UserID, OrderID: order.ID, DiscountApplied: decimal.NewFromInt(2)}
	}
	require.NoError(t, repo.CreateCouponUsage(ctx, usage()))
	assert.Error(t, repo.CreateCouponUsage(ctx, usage()))

	require.NoError(t, repo.DeleteCouponUsage(ctx, usage().CouponID, order.ID))
	assert.Zero(t, countRows(t, db, &models.CouponUsage{}, "order_id = ?", order.ID))
}

func TestWithTxRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.WithTx(tx).CreateOrder(ctx, newOrder(uuid.New())); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, countRows(t, db, &models.Order{}, "1 = 1"))
}
