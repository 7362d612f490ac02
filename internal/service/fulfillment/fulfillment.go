// Package fulfillment converts a buyer's cart into a committed order.
//
// The whole conversion runs in one database transaction: order creation,
// per-product stock reservations and the cart wipe either all commit or all
// roll back. The availability pre-flight is advisory; the conditional
// decrement inside the transaction is the only stock authority.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/adaptnxt/shop/internal/models"
	"github.com/adaptnxt/shop/internal/service/cart"
	"github.com/adaptnxt/shop/internal/service/inventory"
	"github.com/adaptnxt/shop/internal/service/order"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart = errors.New("cannot create order from empty cart")

	// ErrOperationFailed marks storage faults during the conversion, as
	// opposed to domain outcomes the buyer can act on.
	ErrOperationFailed = errors.New("order fulfillment failed")
)

type Service struct {
	db        *gorm.DB
	carts     *cart.Service
	inventory *inventory.Service
	orders    *order.Service
}

func New(db *gorm.DB, carts *cart.Service, inv *inventory.Service, orders *order.Service) *Service {
	return &Service{db: db, carts: carts, inventory: inv, orders: orders}
}

// CreateOrderFromCart reads the buyer's cart, validates stock, writes the
// order with locked line items, reserves stock and clears the cart, all
// inside a single transaction. A reservation lost to a concurrent checkout
// aborts everything, including the already-written order row.
func (s *Service) CreateOrderFromCart(ctx context.Context, userID uint, shippingAddress string) (*models.Order, error) {
	var created *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		inv := s.inventory.WithTx(tx)
		orders := s.orders.WithTx(tx)

		c, err := carts.CartByUser(ctx, userID)
		if err != nil {
			return err
		}

		items, err := carts.ListItems(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// Advisory pre-flight: fail fast on the first unavailable
		// product before anything is written.
		for _, it := range items {
			avail, err := inv.Available(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if it.Quantity > avail {
				return &inventory.InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: avail}
			}
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   it.ProductID,
				Quantity:    it.Quantity,
				PriceAtTime: it.PriceAtTime,
			})
		}

		created, err = orders.Create(ctx, userID, orderItems, shippingAddress)
		if err != nil {
			return err
		}

		// The reservation is the stock authority. Stock may have moved
		// since the pre-flight; a failure here rolls the order back.
		for _, it := range items {
			if err := inv.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		return carts.Clear(ctx, userID)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	return created, nil
}

func isDomainError(err error) bool {
	var insufficient *inventory.InsufficientStockError
	return errors.Is(err, cart.ErrCartNotFound) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, inventory.ErrProductNotFound) ||
		errors.Is(err, order.ErrValidation) ||
		errors.As(err, &insufficient)
}
