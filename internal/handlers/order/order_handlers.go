package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adaptnxt/shop/internal/logging"
	"github.com/adaptnxt/shop/internal/models"
	"github.com/adaptnxt/shop/internal/mykafka"
	"github.com/adaptnxt/shop/internal/service/fulfillment"
	ordersvc "github.com/adaptnxt/shop/internal/service/order"
)

type OrderHandler struct {
	Orders      *ordersvc.Service
	Fulfillment *fulfillment.Service
	Producer    *mykafka.Producer
}

type orderResponse struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// Checkout converts the buyer's cart into an order.
func (h *OrderHandler) Checkout(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req struct {
		ShippingAddress string `json:"shipping_address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ShippingAddress == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "shipping_address required")
	}

	created, err := h.Fulfillment.CreateOrderFromCart(ctx, userID, req.ShippingAddress)
	if err != nil {
		l.Warn("checkout_error", "userID", userID, "error", err)
		return mapError(err)
	}

	items, err := h.Orders.Items(ctx, created.ID)
	if err != nil {
		return mapError(err)
	}

	l.Info("checkout_success", "userID", userID, "orderID", created.ID)
	h.publish(c, userID, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": created.ID,
		"total":   created.TotalAmount,
	})

	return c.JSON(http.StatusCreated, orderResponse{Order: created, Items: items})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := h.Orders.Get(ctx, uint(id))
	if err != nil {
		return mapError(err)
	}
	if o.UserID != userID && role(c) != "admin" {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	items, err := h.Orders.Items(ctx, o.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, orderResponse{Order: o, Items: items})
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}

	orders, err := h.Orders.ListByBuyer(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) CanCancel(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := h.Orders.Get(ctx, uint(id))
	if err != nil {
		return mapError(err)
	}
	if o.UserID != userID && role(c) != "admin" {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	ok, err := h.Orders.CanCancel(ctx, o.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"can_cancel": ok})
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := h.Orders.Get(ctx, uint(id))
	if err != nil {
		return mapError(err)
	}
	if o.UserID != userID && role(c) != "admin" {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	cancelled, err := h.Orders.Cancel(ctx, o.ID)
	if err != nil {
		l.Warn("cancel_error", "userID", userID, "orderID", o.ID, "error", err)
		return mapError(err)
	}

	h.publish(c, userID, map[string]any{
		"type":    "order_cancelled",
		"userID":  userID,
		"orderID": cancelled.ID,
	})
	return c.JSON(http.StatusOK, cancelled)
}

// OrdersByStatus is an admin listing.
func (h *OrderHandler) OrdersByStatus(c echo.Context) error {
	status := models.OrderStatus(c.QueryParam("status"))
	if status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status required")
	}

	orders, err := h.Orders.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateStatus is the admin transition endpoint; the state machine still
// applies.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Orders.SetStatus(ctx, uint(id), req.Status)
	if err != nil {
		l.Warn("update_status_error", "orderID", id, "status", req.Status, "error", err)
		return mapError(err)
	}

	h.publish(c, updated.UserID, map[string]any{
		"type":    "order_status_updated",
		"orderID": updated.ID,
		"status":  updated.Status,
	})
	return c.JSON(http.StatusOK, updated)
}
