// Package cart owns the buyer's working set of (product, quantity,
// price snapshot) tuples. One cart per buyer, created lazily and never
// deleted, only emptied.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/adaptnxt/shop/internal/models"
	"github.com/adaptnxt/shop/internal/service/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Service struct {
	db        *gorm.DB
	inventory *inventory.Service
}

func New(db *gorm.DB, inv *inventory.Service) *Service {
	return &Service{db: db, inventory: inv}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx, inventory: s.inventory.WithTx(tx)}
}

// GetOrCreateCart returns the buyer's cart, creating an empty one on first
// access. Idempotent.
func (s *Service) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var c models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = models.Cart{UserID: userID}
	if createErr := s.db.WithContext(ctx).Create(&c).Error; createErr != nil {
		// a concurrent first access may have won the create; the
		// user_id unique index makes the loser land here
		if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
			return nil, createErr
		}
	}
	return &c, nil
}

// CartByUser returns the buyer's cart or ErrCartNotFound. Unlike
// GetOrCreateCart it never creates one; checkout wants the absence visible.
func (s *Service) CartByUser(ctx context.Context, userID uint) (*models.Cart, error) {
	var c models.Cart
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Service) ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem puts quantity units of the product into the buyer's cart. A second
// add of the same product merges into the existing row and keeps its original
// price snapshot; a new row snapshots the current catalog price.
func (s *Service) AddItem(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if quantity == 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be > 0"}
	}

	c, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrProductNotFound
		}
		return nil, err
	}

	if quantity > p.Stock {
		return nil, &inventory.InsufficientStockError{ProductID: productID, Requested: quantity, Available: p.Stock}
	}

	// Insert-or-increment as one statement so two concurrent adds of the
	// same product both land. The conflict update leaves price_at_time
	// alone, keeping the original snapshot.
	item := models.CartItem{
		CartID:      c.ID,
		ProductID:   productID,
		Quantity:    quantity,
		PriceAtTime: p.Price,
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("quantity + ?", quantity),
			}),
		}).
		Create(&item).Error; err != nil {
		return nil, err
	}

	var merged models.CartItem
	if err := s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", c.ID, productID).
		First(&merged).Error; err != nil {
		return nil, err
	}
	return &merged, nil
}

// UpdateItemQuantity sets the item's quantity. A quantity of zero or below
// deletes the item instead; removed reports which path was taken.
func (s *Service) UpdateItemQuantity(ctx context.Context, cartItemID uint, quantity int) (item *models.CartItem, removed bool, err error) {
	var existing models.CartItem
	if err := s.db.WithContext(ctx).First(&existing, cartItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCartItemNotFound
		}
		return nil, false, err
	}

	if quantity <= 0 {
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	avail, err := s.inventory.Available(ctx, existing.ProductID)
	if err != nil {
		return nil, false, err
	}
	if uint(quantity) > avail {
		return nil, false, &inventory.InsufficientStockError{ProductID: existing.ProductID, Requested: uint(quantity), Available: avail}
	}

	existing.Quantity = uint(quantity)
	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (s *Service) RemoveItem(ctx context.Context, cartItemID uint) error {
	var item models.CartItem
	if err := s.db.WithContext(ctx).First(&item, cartItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Delete(&item).Error
}

// Clear deletes all items in the buyer's cart. No-op when the cart is absent.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	c, err := s.CartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return err
	}
	return s.db.WithContext(ctx).
		Where("cart_id = ?", c.ID).
		Delete(&models.CartItem{}).Error
}

// Total sums priceAtTime * quantity over the cart's items. Zero for an empty
// or absent cart.
func (s *Service) Total(ctx context.Context, cartID uint) (float64, error) {
	items, err := s.ListItems(ctx, cartID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += it.PriceAtTime * float64(it.Quantity)
	}
	return total, nil
}

func (s *Service) IsEmpty(ctx context.Context, cartID uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
