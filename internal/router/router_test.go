package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shoplite/storefront-backend/config"
	"github.com/shoplite/storefront-backend/internal/app/controller"
	"github.com/shoplite/storefront-backend/internal/app/model"
	"github.com/shoplite/storefront-backend/internal/app/repository"
	"github.com/shoplite/storefront-backend/internal/app/service"
	"github.com/shoplite/storefront-backend/internal/db"
	"github.com/shoplite/storefront-backend/internal/middleware"
	"github.com/shoplite/storefront-backend/internal/storage"
	"github.com/shoplite/storefront-backend/internal/websocket"
	"github.com/shoplite/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRouterTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "8080",
			GinMode:     gin.TestMode,
			Environment: "test",
		},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 168 * time.Hour,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	hub := websocket.NewHub()
	go hub.Run()

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)

	authService := service.NewAuthService(userRepo, cfg.JWT)
	productService := service.NewProductService(productRepo, hub)
	cartService := service.NewCartService(cartRepo, productRepo)

	s3Storage := storage.NewS3Storage("us-east-1", "test-bucket", "key", "secret", "")

	r := NewRouter(
		controller.NewAuthController(authService),
		controller.NewProductController(productService),
		controller.NewCartController(cartService),
		controller.NewUploadController(s3Storage),
		controller.NewCatalogEventsController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		cfg,
	)

	return r.Setup(), testDB
}

func createAdmin(t *testing.T, testDB *gorm.DB) *model.User {
	t.Helper()

	hash, err := util.HashPassword("admin-password")
	require.NoError(t, err)

	admin := &model.User{
		Email:        "admin@example.com",
		PasswordHash: hash,
		Name:         "Admin",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, testDB.Create(admin).Error)
	return admin
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func loginToken(t *testing.T, engine *gin.Engine, email, password string) string {
	t.Helper()

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w)["access_token"].(string)
}

func TestRouter_HealthCheck(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := doJSON(t, engine, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestRouter_CartRequiresAuthentication(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/cart", "", map[string]interface{}{
		"product_id": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ProductWriteRequiresAdmin(t *testing.T) {
	engine, _ := setupRouterTest(t)

	// Register a regular shopper
	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "shopper@example.com",
		"password": "password123",
		"name":     "Shopper",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := loginToken(t, engine, "shopper@example.com", "password123")

	w = doJSON(t, engine, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name":  "Rogue Product",
		"price": 1.00,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_FullShoppingScenario(t *testing.T) {
	engine, testDB := setupRouterTest(t)

	createAdmin(t, testDB)
	adminToken := loginToken(t, engine, "admin@example.com", "admin-password")

	// Admin stocks the catalog
	w := doJSON(t, engine, http.MethodPost, "/api/v1/products", adminToken, map[string]interface{}{
		"name":           "Wireless Mouse",
		"description":    "2.4GHz wireless mouse",
		"price":          49.99,
		"stock_quantity": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	mouseID := decode(t, w)["product"].(map[string]interface{})["id"].(float64)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/products", adminToken, map[string]interface{}{
		"name":           "USB Hub",
		"price":          24.99,
		"stock_quantity": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	hubID := decode(t, w)["product"].(map[string]interface{})["id"].(float64)

	// Catalog is public
	w = doJSON(t, engine, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])

	// Shopper registers and fills the cart
	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "shopper@example.com",
		"password": "password123",
		"name":     "Shopper",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	shopperToken := loginToken(t, engine, "shopper@example.com", "password123")

	// Adding the mouse twice merges into one row with quantity two
	for i := 0; i < 2; i++ {
		w = doJSON(t, engine, http.MethodPost, "/api/v1/cart", shopperToken, map[string]interface{}{
			"product_id": mouseID,
			"quantity":   1,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w = doJSON(t, engine, http.MethodPost, "/api/v1/cart", shopperToken, map[string]interface{}{
		"product_id": hubID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/cart", shopperToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode(t, w)
	assert.Equal(t, float64(2), cart["count"])
	assert.Equal(t, 124.97, cart["total"])

	// Admin retires the hub; the shopper's cart reads clean without it
	w = doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/v1/products/%.0f", hubID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/cart", shopperToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart = decode(t, w)
	assert.Equal(t, float64(1), cart["count"])
	assert.Equal(t, 99.98, cart["total"])

	// Deleting an already-deleted product is a NotFound
	w = doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/v1/products/%.0f", hubID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Removing the mouse row twice: second delete still succeeds
	items := cart["cart_items"].([]interface{})
	itemID := items[0].(map[string]interface{})["id"].(float64)
	for i := 0; i < 2; i++ {
		w = doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/v1/cart/%.0f", itemID), shopperToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/cart", shopperToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart = decode(t, w)
	assert.Equal(t, float64(0), cart["count"])
	assert.Equal(t, float64(0), cart["total"])
}
