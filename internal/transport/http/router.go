package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adaptnxt/shop/internal/handlers"
	"github.com/adaptnxt/shop/internal/handlers/cart"
	"github.com/adaptnxt/shop/internal/handlers/order"
	"github.com/adaptnxt/shop/internal/service/token"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
	CartHandler    *cart.CartHandler
	OrderHandler   *order.OrderHandler
	ServiceHandler *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := v1.Group("/admin", d.ServiceHandler.AutoRefreshMiddlewareAdmin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.POST("/products/:id/restock", d.ProductHandler.RestockProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/orders", d.OrderHandler.OrdersByStatus)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)

	carts := v1.Group("/cart", d.ServiceHandler.AutoRefreshMiddleware)
	carts.GET("", d.CartHandler.GetCart)
	carts.POST("", d.CartHandler.AddToCart)
	carts.DELETE("", d.CartHandler.ClearCart)
	carts.GET("/total", d.CartHandler.CartTotal)
	carts.PATCH("/items/:id", d.CartHandler.UpdateItem)
	carts.DELETE("/items/:id", d.CartHandler.RemoveItem)

	orders := v1.Group("/orders", d.ServiceHandler.AutoRefreshMiddleware)
	orders.POST("", d.OrderHandler.Checkout)
	orders.GET("", d.OrderHandler.MyOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.GET("/:id/can-cancel", d.OrderHandler.CanCancel)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)
}
