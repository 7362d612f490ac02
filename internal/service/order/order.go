// Package order owns immutable order records and the status state machine.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/adaptnxt/shop/internal/models"
	"gorm.io/gorm"
)

var (
	ErrValidation    = errors.New("validation")
	ErrOrderNotFound = errors.New("order not found")
)

type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// transitions is the full status graph. CANCELLED and DELIVERED are terminal;
// cancellation is reachable only from PENDING and CONFIRMED.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx}
}

// Create persists a PENDING order and its line items as one unit. Quantity
// and price snapshots are taken verbatim from the supplied items; the total
// is their sum and never changes afterwards.
func (s *Service) Create(ctx context.Context, userID uint, items []models.OrderItem, shippingAddress string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	var total float64
	for i := range items {
		if items[i].Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		total += items[i].PriceAtTime * float64(items[i].Quantity)
	}

	order := models.Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Service) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) ListByBuyer(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SetStatus applies a status transition. Illegal moves fail with
// InvalidTransitionError and leave the order untouched.
func (s *Service) SetStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, &InvalidTransitionError{From: o.Status, To: status}
	}
	if err := s.db.WithContext(ctx).
		Model(o).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

// CanCancel mirrors the cancellation guard without attempting the move.
func (s *Service) CanCancel(ctx context.Context, orderID uint) (bool, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return false, err
	}
	return CanTransition(o.Status, models.OrderStatusCancelled), nil
}

// Cancel moves the order to CANCELLED. Stock reserved for the order is not
// restored.
func (s *Service) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.SetStatus(ctx, orderID, models.OrderStatusCancelled)
}
