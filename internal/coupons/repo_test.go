package coupons

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

func seedCoupon(t *testing.T, db *gorm.DB, code string, maxUses *int, current int, active bool) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: dec("10"),
		MaxUses:       maxUses,
		CurrentUses:   current,
		IsActive:      active,
	}
	require.NoError(t, db.Create(c).Error)
	if !active {
		require.NoError(t, db.Model(c).UpdateColumn("is_active", false).Error)
	}
	return c
}

func usesOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var c models.Coupon
	require.NoError(t, db.Where("id = ?", id).First(&c).Error)
	return c.CurrentUses
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	seeded := seedCoupon(t, db, "Save10", nil, 0, true)

	found, err := repo.FindByCode(context.Background(), "  save10 ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)

	missing, err := repo.FindByCode(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIncrementUsageStopsAtMax(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	max := 2
	c := seedCoupon(t, db, "TWICE", &max, 0, true)

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsage(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repo.IncrementUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, usesOf(t, db, c.ID))
}

func TestIncrementUsageUnlimitedAndInactive(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	open := seedCoupon(t, db, "OPEN", nil, 41, true)
	ok, err := repo.IncrementUsage(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, usesOf(t, db, open.ID))

	off := seedCoupon(t, db, "OFF", nil, 0, false)
	ok, err = repo.IncrementUsage(ctx, off.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrementUsageConcurrentNeverOvershoots(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	max := 1
	c := seedCoupon(t, db, "LAST", &max, 0, true)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementUsage(context.Background(), c.ID)
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, wins, 1)
	assert.LessOrEqual(t, usesOf(t, db, c.ID), 1)
}

func TestDecrementUsageFloorsAtZero(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	c := seedCoupon(t, db, "BACK", nil, 1, true)

	require.NoError(t, repo.DecrementUsage(ctx, c.ID))
	require.NoError(t, repo.DecrementUsage(ctx, c.ID))
	assert.Equal(t, 0, usesOf(t, db, c.ID))
}
