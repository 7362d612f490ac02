package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	cartsvc "github.com/adaptnxt/shop/internal/service/cart"
	"github.com/adaptnxt/shop/internal/service/inventory"
)

func userID(c echo.Context) (uint, error) {
	v, ok := c.Get("userID").(uint)
	if !ok || v == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return v, nil
}

func (h *CartHandler) publish(c echo.Context, userID uint, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func mapError(err error) error {
	var (
		validation   *cartsvc.ValidationError
		insufficient *inventory.InsufficientStockError
	)
	switch {
	case errors.Is(err, cartsvc.ErrCartNotFound),
		errors.Is(err, cartsvc.ErrCartItemNotFound),
		errors.Is(err, inventory.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
