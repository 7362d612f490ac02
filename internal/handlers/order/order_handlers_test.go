package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adaptnxt/shop/internal/models"
	"github.com/adaptnxt/shop/internal/mykafka"
	cartsvc "github.com/adaptnxt/shop/internal/service/cart"
	"github.com/adaptnxt/shop/internal/service/fulfillment"
	"github.com/adaptnxt/shop/internal/service/inventory"
	ordersvc "github.com/adaptnxt/shop/internal/service/order"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	H     *OrderHandler
	Carts *cartsvc.Service
	DB    *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	inv := inventory.New(db)
	carts := cartsvc.New(db, inv)
	orders := ordersvc.New(db)
	h := &OrderHandler{
		Orders:      orders,
		Fulfillment: fulfillment.New(db, carts, inv, orders),
		Producer:    &mykafka.Producer{},
	}
	return &testEnv{T: t, E: echo.New(), H: h, Carts: carts, DB: db}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, userID uint, role string) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", role)
	return rec, c
}

func (env *testEnv) fillCart(t *testing.T, userID uint) models.Product {
	p := models.Product{Name: "widget", Price: 10, Stock: 5}
	require.NoError(t, env.DB.Create(&p).Error)
	_, err := env.Carts.AddItem(context.Background(), userID, p.ID, 2)
	require.NoError(t, err)
	return p
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)

	load := map[string]string{"shipping_address": "221B Baker Street"}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", load, 1, "user")
	require.NoError(t, env.H.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Order models.Order       `json:"order"`
		Items []models.OrderItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 20.0, resp.Order.TotalAmount)
	require.Equal(t, models.OrderStatusPending, resp.Order.Status)
	require.Len(t, resp.Items, 1)
	require.Equal(t, uint(2), resp.Items[0].Quantity)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Carts.GetOrCreateCart(context.Background(), 1)
	require.NoError(t, err)

	load := map[string]string{"shipping_address": "addr"}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", load, 1, "user")
	err = env.H.Checkout(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCheckoutRequiresShippingAddress(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", map[string]string{}, 1, "user")
	err := env.H.Checkout(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetOrderOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)

	_, err := env.H.Fulfillment.CreateOrderFromCart(context.Background(), 1, "addr")
	require.NoError(t, err)

	// owner sees it
	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil, 1, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.H.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// another buyer does not
	_, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil, 2, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	err = env.H.GetOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, http.StatusNotFound, he.Code)

	// an admin does
	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil, 2, "admin")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.H.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)

	created, err := env.H.Fulfillment.CreateOrderFromCart(context.Background(), 1, "addr")
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/cancel", nil, 1, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.H.CancelOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := env.H.Orders.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)
}

func TestCancelShippedOrderConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)
	ctx := context.Background()

	created, err := env.H.Fulfillment.CreateOrderFromCart(ctx, 1, "addr")
	require.NoError(t, err)
	_, err = env.H.Orders.SetStatus(ctx, created.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = env.H.Orders.SetStatus(ctx, created.ID, models.OrderStatusShipped)
	require.NoError(t, err)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/cancel", nil, 1, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	err = env.H.CancelOrder(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, http.StatusConflict, he.Code)

	got, err := env.H.Orders.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, got.Status)
}

func TestUpdateStatusAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)

	_, err := env.H.Fulfillment.CreateOrderFromCart(context.Background(), 1, "addr")
	require.NoError(t, err)

	load := map[string]string{"status": string(models.OrderStatusConfirmed)}
	rec, c := env.doJSONRequest(http.MethodPatch, "/api/v1/admin/orders/1/status", load, 9, "admin")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.H.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.OrderStatusConfirmed, resp.Status)
}

func TestMyOrders(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t, 1)
	ctx := context.Background()

	_, err := env.H.Fulfillment.CreateOrderFromCart(ctx, 1, "addr")
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil, 1, "user")
	require.NoError(t, env.H.MyOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)

	// another buyer has none
	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil, 2, "user")
	require.NoError(t, env.H.MyOrders(c))
	var other []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &other))
	require.Empty(t, other)
}
