package repository

import (
	"testing"

	"github.com/shoplite/storefront-backend/internal/app/model"
	"github.com/shoplite/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartRepositoryTest(t *testing.T) (CartRepository, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := NewCartRepository(testDB)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	product := &model.Product{
		Name:          "Wireless Mouse",
		Description:   "2.4GHz wireless mouse",
		Price:         49.99,
		StockQuantity: 10,
	}
	testDB.Create(product)

	return cartRepo, user, product, testDB
}

func TestCartRepository_Upsert_InsertsNewRow(t *testing.T) {
	cartRepo, user, product, _ := setupCartRepositoryTest(t)

	err := cartRepo.Upsert(&model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	items, err := cartRepo.FindByUserID(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartRepository_Upsert_IncrementsExistingRow(t *testing.T) {
	cartRepo, user, product, _ := setupCartRepositoryTest(t)

	err := cartRepo.Upsert(&model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	err = cartRepo.Upsert(&model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  3,
	})
	require.NoError(t, err)

	// Still one row, quantities summed
	items, err := cartRepo.FindByUserID(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestCartRepository_Upsert_SeparateUsersGetSeparateRows(t *testing.T) {
	cartRepo, user, product, testDB := setupCartRepositoryTest(t)

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		Name:         "Other User",
		Role:         model.RoleUser,
	}
	testDB.Create(other)

	err := cartRepo.Upsert(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	err = cartRepo.Upsert(&model.CartItem{UserID: other.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	items, err := cartRepo.FindByUserID(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = cartRepo.FindByUserID(other.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartRepository_FindByUserID_PreloadsProduct(t *testing.T) {
	cartRepo, user, product, _ := setupCartRepositoryTest(t)

	err := cartRepo.Create(&model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  1,
	})
	require.NoError(t, err)

	items, err := cartRepo.FindByUserID(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].Product.ID)
	assert.Equal(t, "Wireless Mouse", items[0].Product.Name)
}

func TestCartRepository_FindByUserAndProduct(t *testing.T) {
	cartRepo, user, product, _ := setupCartRepositoryTest(t)

	err := cartRepo.Create(&model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  4,
	})
	require.NoError(t, err)

	item, err := cartRepo.FindByUserAndProduct(user.ID, product.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	_, err = cartRepo.FindByUserAndProduct(user.ID, 99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_Delete(t *testing.T) {
	cartRepo, user, product, _ := setupCartRepositoryTest(t)

	cartItem := &model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  1,
	}
	require.NoError(t, cartRepo.Create(cartItem))

	err := cartRepo.Delete(cartItem.ID)
	assert.NoError(t, err)

	_, err = cartRepo.FindByID(cartItem.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_DeleteByUserID(t *testing.T) {
	cartRepo, user, product, testDB := setupCartRepositoryTest(t)

	second := &model.Product{Name: "USB Hub", Price: 24.99, StockQuantity: 5}
	testDB.Create(second)

	require.NoError(t, cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: second.ID, Quantity: 2}))

	err := cartRepo.DeleteByUserID(user.ID)
	assert.NoError(t, err)

	items, err := cartRepo.FindByUserID(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 0)
}

func TestCartRepository_DeleteOrphaned(t *testing.T) {
	cartRepo, user, product, testDB := setupCartRepositoryTest(t)

	doomed := &model.Product{Name: "Discontinued Lamp", Price: 12.50, StockQuantity: 1}
	testDB.Create(doomed)

	require.NoError(t, cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: doomed.ID, Quantity: 1}))

	// Hard-delete the product so its cart row becomes orphaned
	require.NoError(t, testDB.Delete(&model.Product{}, doomed.ID).Error)

	count, err := cartRepo.DeleteOrphaned()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	items, err := cartRepo.FindByUserID(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ProductID)
}

func TestCartRepository_DeleteOrphaned_NoOrphans(t *testing.T) {
	cartRepo, user, product, _ := setupCartRepositoryTest(t)

	require.NoError(t, cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))

	count, err := cartRepo.DeleteOrphaned()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
