package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/adaptnxt/shop/internal/config"
	"github.com/adaptnxt/shop/internal/es"
	"github.com/adaptnxt/shop/internal/handlers"
	carthandler "github.com/adaptnxt/shop/internal/handlers/cart"
	orderhandler "github.com/adaptnxt/shop/internal/handlers/order"
	"github.com/adaptnxt/shop/internal/logging"
	"github.com/adaptnxt/shop/internal/mykafka"
	cartsvc "github.com/adaptnxt/shop/internal/service/cart"
	"github.com/adaptnxt/shop/internal/service/fulfillment"
	"github.com/adaptnxt/shop/internal/service/inventory"
	ordersvc "github.com/adaptnxt/shop/internal/service/order"
	"github.com/adaptnxt/shop/internal/service/token"
	httpserver "github.com/adaptnxt/shop/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Printf("elasticsearch unavailable, search disabled: %v", err)
		esClient = nil
	}

	inventorySvc := inventory.New(db)
	cartSvc := cartsvc.New(db, inventorySvc)
	orderSvc := ordersvc.New(db)
	fulfillmentSvc := fulfillment.New(db, cartSvc, inventorySvc, orderSvc)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:             db,
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, Inventory: inventorySvc, Producer: prod, ES: esClient, Index: "product"},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "product"},
		CartHandler:    &carthandler.CartHandler{Carts: cartSvc, Producer: prod},
		OrderHandler:   &orderhandler.OrderHandler{Orders: orderSvc, Fulfillment: fulfillmentSvc, Producer: prod},
		ServiceHandler: &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
