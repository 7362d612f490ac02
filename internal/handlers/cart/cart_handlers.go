package cart

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adaptnxt/shop/internal/logging"
	"github.com/adaptnxt/shop/internal/mykafka"
	cartsvc "github.com/adaptnxt/shop/internal/service/cart"
)

type CartHandler struct {
	Carts    *cartsvc.Service
	Producer *mykafka.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	crt, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return mapError(err)
	}
	items, err := h.Carts.ListItems(ctx, crt.ID)
	if err != nil {
		return mapError(err)
	}
	total, err := h.Carts.Total(ctx, crt.ID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cart":  crt,
		"items": items,
		"total": total,
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Carts.AddItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		l.Warn("add_item_error", "userID", userID, "productID", req.ProductID, "error", err)
		return mapError(err)
	}

	h.publish(c, userID, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, removed, err := h.Carts.UpdateItemQuantity(ctx, uint(id), req.Quantity)
	if err != nil {
		return mapError(err)
	}

	if removed {
		h.publish(c, userID, map[string]any{
			"type":         "cart_item_removed",
			"userID":       userID,
			"removed_item": id,
		})
		return c.JSON(http.StatusOK, echo.Map{"removed_item": id})
	}

	h.publish(c, userID, map[string]any{
		"type":         "cart_item_updated",
		"userID":       userID,
		"id":           item.ID,
		"new_quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Carts.RemoveItem(c.Request().Context(), uint(id)); err != nil {
		return mapError(err)
	}

	h.publish(c, userID, map[string]any{
		"type":         "cart_item_removed",
		"userID":       userID,
		"removed_item": id,
	})
	return c.JSON(http.StatusOK, echo.Map{"removed_item": id})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.Carts.Clear(c.Request().Context(), userID); err != nil {
		return mapError(err)
	}

	h.publish(c, userID, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.JSON(http.StatusOK, echo.Map{"cleared": true})
}

func (h *CartHandler) CartTotal(c echo.Context) error {
	userID, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	crt, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return mapError(err)
	}
	total, err := h.Carts.Total(ctx, crt.ID)
	if err != nil {
		return mapError(err)
	}
	empty, err := h.Carts.IsEmpty(ctx, crt.ID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "empty": empty})
}
