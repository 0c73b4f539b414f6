package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
)

func strPtr(v string) *string { return &v }

func TestGetDefaultAddressMergesProfileAndAddress(t *testing.T) {
	db := dbtest.Open(t)
	store := NewRepository(db)
	user := uuid.New()

	require.NoError(t, db.Create(&models.Profile{ID: user, FirstName: "Omar", LastName: "Saleh", Email: "omar@example.com", Phone: strPtr("111")}).Error)
	require.NoError(t, db.Create(&models.Address{ID: uuid.New(), UserID: user, AddressText: "Old street", City: "Hawalli"}).Error)
	require.NoError(t, db.Create(&models.Address{ID: uuid.New(), UserID: user, AddressText: " Block 1 ", City: "Salmiya", Area: strPtr("Area 5"), Phone: strPtr("222"), IsDefault: true}).Error)

	got, err := store.GetDefaultAddress(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Omar", got.FirstName)
	assert.Equal(t, "Saleh", got.LastName)
	assert.Equal(t, "omar@example.com", got.Email)
	assert.Equal(t, "222", got.Phone, "address phone wins over profile phone")
	assert.Equal(t, "Block 1", got.AddressText)
	assert.Equal(t, "Salmiya", got.City)
	assert.Equal(t, "Area 5", got.Area)
}

func TestGetDefaultAddressProfileOnly(t *testing.T) {
	db := dbtest.Open(t)
	store := NewRepository(db)
	user := uuid.New()
	require.NoError(t, db.Create(&models.Profile{ID: user, FirstName: "Sara", Email: "sara@example.com"}).Error)

	got, err := store.GetDefaultAddress(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sara", got.FirstName)
	assert.Empty(t, got.AddressText)
}

func TestGetDefaultAddressMissing(t *testing.T) {
	store := NewRepository(dbtest.Open(t))
	got, err := store.GetDefaultAddress(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}
