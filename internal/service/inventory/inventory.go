// Package inventory owns the authoritative stock count per product.
//
// Reserve is the only mutation path shared between buyers: the check and the
// decrement run as one conditional UPDATE so that two concurrent reservations
// can never both succeed when their combined quantity exceeds the stock.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/adaptnxt/shop/internal/models"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

type InsufficientStockError struct {
	ProductID uint
	Requested uint
	Available uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
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

// Available returns the product's current stock. An advisory read; only
// Reserve decides.
func (s *Service) Available(ctx context.Context, productID uint) (uint, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return p.Stock, nil
}

// IsAvailable reports whether quantity units of the product are in stock.
func (s *Service) IsAvailable(ctx context.Context, productID, quantity uint) (bool, error) {
	stock, err := s.Available(ctx, productID)
	if err != nil {
		return false, err
	}
	return quantity <= stock, nil
}

// Reserve decrements the product's stock by quantity iff enough is left.
// Check and decrement happen in a single statement; the row filter carries
// the stock >= quantity condition, so a lost race shows up as zero affected
// rows rather than a negative count.
func (s *Service) Reserve(ctx context.Context, productID, quantity uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return &InsufficientStockError{ProductID: productID, Requested: quantity, Available: p.Stock}
}

// Restock adds quantity units back. Used by catalog administration, not by
// cancellation: cancelling an order deliberately leaves stock untouched.
func (s *Service) Restock(ctx context.Context, productID, quantity uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
