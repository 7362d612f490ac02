package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/adaptnxt/shop/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func TestIsAvailable(t *testing.T) {
	db := initTestDB(t)
	svc := New(db)
	ctx := context.Background()

	p := models.Product{Name: "widget", Price: 10, Stock: 5}
	require.NoError(t, db.Create(&p).Error)

	ok, err := svc.IsAvailable(ctx, p.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.IsAvailable(ctx, p.ID, 6)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.IsAvailable(ctx, 999, 1)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestReserve(t *testing.T) {
	db := initTestDB(t)
	svc := New(db)
	ctx := context.Background()

	p := models.Product{Name: "widget", Price: 10, Stock: 5}
	require.NoError(t, db.Create(&p).Error)

	require.NoError(t, svc.Reserve(ctx, p.ID, 3))

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	require.Equal(t, uint(2), got.Stock)

	err := svc.Reserve(ctx, p.ID, 3)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, p.ID, insufficient.ProductID)
	require.Equal(t, uint(2), insufficient.Available)

	require.NoError(t, db.First(&got, p.ID).Error)
	require.Equal(t, uint(2), got.Stock)

	require.ErrorIs(t, svc.Reserve(ctx, 999, 1), ErrProductNotFound)
}

func TestReserveConcurrent(t *testing.T) {
	db := initTestDB(t)
	svc := New(db)
	ctx := context.Background()

	p := models.Product{Name: "widget", Price: 10, Stock: 5}
	require.NoError(t, db.Create(&p).Error)

	const workers = 2
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Reserve(ctx, p.ID, 5)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		lost++
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	require.Equal(t, uint(0), got.Stock)
}

func TestRestock(t *testing.T) {
	db := initTestDB(t)
	svc := New(db)
	ctx := context.Background()

	p := models.Product{Name: "widget", Price: 10, Stock: 0}
	require.NoError(t, db.Create(&p).Error)

	require.NoError(t, svc.Restock(ctx, p.ID, 7))

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	require.Equal(t, uint(7), got.Stock)

	require.ErrorIs(t, svc.Restock(ctx, 999, 1), ErrProductNotFound)
}
