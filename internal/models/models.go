package models

import (
	"time"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `json:"description"`
	Category    string  `gorm:"index"                     json:"category"`
	Price       float64 `gorm:"not null"                  json:"price"`
	Stock       uint    `gorm:"not null;default:0"        json:"stock"`
	ImageURL    string  `json:"image_url"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

type Cart struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null"    json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartItem struct {
	ID          uint    `gorm:"primaryKey"                            json:"id"`
	CartID      uint    `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID   uint    `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity    uint    `gorm:"not null;check:quantity>0"             json:"quantity"`
	PriceAtTime float64 `gorm:"not null"                              json:"price_at_time"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is immutable after creation except for Status.
type Order struct {
	ID              uint        `gorm:"primaryKey"     json:"id"`
	UserID          uint        `gorm:"index;not null" json:"user_id"`
	TotalAmount     float64     `gorm:"not null"       json:"total_amount"`
	Status          OrderStatus `gorm:"not null"       json:"status"`
	ShippingAddress string      `json:"shipping_address"`
	CreatedAt       time.Time   `gorm:"not null"       json:"created_at"`
}

type OrderItem struct {
	ID          uint    `gorm:"primaryKey"     json:"id"`
	OrderID     uint    `gorm:"index;not null" json:"order_id"`
	ProductID   uint    `gorm:"not null"       json:"product_id"`
	Quantity    uint    `gorm:"not null"       json:"quantity"`
	PriceAtTime float64 `gorm:"not null"       json:"price_at_time"`
}
