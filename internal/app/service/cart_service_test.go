package service

import (
	"testing"

	"github.com/shoplite/storefront-backend/internal/app/model"
	"github.com/shoplite/storefront-backend/internal/app/repository"
	"github.com/shoplite/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := NewCartService(cartRepo, productRepo)

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

	return cartService, user, product, testDB
}

func TestCartService_GetUserCart(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	// Initially empty
	items, err := cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 0)

	err = cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	items, err = cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, product.Name, items[0].Product.Name)
}

func TestCartService_AddToCart_SameProductTwiceMergesRow(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	err = cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	// One row with the summed quantity, never two rows
	items, err := cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartService_AddToCart_ProductNotFound(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	err := cartService.AddToCart(user.ID, 99999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	items, err := cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 0)
}

func TestCartService_AddToCart_InvalidQuantity(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	err := cartService.AddToCart(user.ID, product.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	err = cartService.AddToCart(user.ID, product.ID, -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_GetUserCart_SkipsDeletedProducts(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	doomed := &model.Product{Name: "Discontinued Lamp", Price: 12.50, StockQuantity: 1}
	testDB.Create(doomed)

	require.NoError(t, cartService.AddToCart(user.ID, product.ID, 1))
	require.NoError(t, cartService.AddToCart(user.ID, doomed.ID, 1))

	require.NoError(t, testDB.Delete(&model.Product{}, doomed.ID).Error)

	// The cart still reads fine, the dangling item just disappears
	items, err := cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ProductID)
}

func TestCartService_UpdateCartItem(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	require.NoError(t, cartService.AddToCart(user.ID, product.ID, 1))
	items, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = cartService.UpdateCartItem(user.ID, items[0].ID, 5)
	assert.NoError(t, err)

	items, err = cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestCartService_UpdateCartItem_NotFound(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	err := cartService.UpdateCartItem(user.ID, 99999, 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_UpdateCartItem_OwnershipDenied(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		Name:         "Other User",
		Role:         model.RoleUser,
	}
	testDB.Create(other)

	require.NoError(t, cartService.AddToCart(user.ID, product.ID, 1))
	items, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = cartService.UpdateCartItem(other.ID, items[0].ID, 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveFromCart(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	require.NoError(t, cartService.AddToCart(user.ID, product.ID, 1))
	items, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = cartService.RemoveFromCart(user.ID, items[0].ID)
	assert.NoError(t, err)

	items, err = cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 0)
}

func TestCartService_RemoveFromCart_AlreadyGoneSucceeds(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	err := cartService.RemoveFromCart(user.ID, 99999)
	assert.NoError(t, err)
}

func TestCartService_RemoveFromCart_OwnershipDenied(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		Name:         "Other User",
		Role:         model.RoleUser,
	}
	testDB.Create(other)

	require.NoError(t, cartService.AddToCart(user.ID, product.ID, 1))
	items, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = cartService.RemoveFromCart(other.ID, items[0].ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	items, err = cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	second := &model.Product{Name: "USB Hub", Price: 24.99, StockQuantity: 5}
	testDB.Create(second)

	require.NoError(t, cartService.AddToCart(user.ID, product.ID, 2))
	require.NoError(t, cartService.AddToCart(user.ID, second.ID, 1))

	err := cartService.ClearCart(user.ID)
	assert.NoError(t, err)

	items, err := cartService.GetUserCart(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 0)
}

func TestCartTotal_EmptyCart(t *testing.T) {
	assert.Equal(t, 0.0, CartTotal(nil))
	assert.Equal(t, 0.0, CartTotal([]model.CartItem{}))
}

func TestCartTotal_SumsPriceTimesQuantity(t *testing.T) {
	items := []model.CartItem{
		{Quantity: 2, Product: model.Product{Price: 49.99}},
		{Quantity: 1, Product: model.Product{Price: 24.99}},
	}

	assert.Equal(t, 124.97, CartTotal(items))
}

func TestCartTotal_RoundsHalfUp(t *testing.T) {
	items := []model.CartItem{
		{Quantity: 3, Product: model.Product{Price: 0.115}},
	}

	// 0.345 rounds up to 0.35
	assert.Equal(t, 0.35, CartTotal(items))
}

func TestCartService_FullShoppingFlow(t *testing.T) {
	cartService, user, mouse, testDB := setupCartServiceTest(t)

	hub := &model.Product{Name: "USB Hub", Price: 24.99, StockQuantity: 5}
	testDB.Create(hub)

	// Add the mouse twice and the hub once
	require.NoError(t, cartService.AddToCart(user.ID, mouse.ID, 1))
	require.NoError(t, cartService.AddToCart(user.ID, mouse.ID, 1))
	require.NoError(t, cartService.AddToCart(user.ID, hub.ID, 1))

	items, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 124.97, CartTotal(items))

	// Removing the hub brings the total back down to two mice
	var hubItem model.CartItem
	for _, item := range items {
		if item.ProductID == hub.ID {
			hubItem = item
		}
	}
	require.NotZero(t, hubItem.ID)
	require.NoError(t, cartService.RemoveFromCart(user.ID, hubItem.ID))

	items, err = cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 99.98, CartTotal(items))

	// Removing it again is still fine
	assert.NoError(t, cartService.RemoveFromCart(user.ID, hubItem.ID))
}
