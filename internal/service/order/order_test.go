package order

import (
	"context"
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

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return db
}

func testItems() []models.OrderItem {
	return []models.OrderItem{
		{ProductID: 1, Quantity: 2, PriceAtTime: 10},
		{ProductID: 2, Quantity: 1, PriceAtTime: 5},
	}
}

func TestCreateComputesTotal(t *testing.T) {
	svc := New(initTestDB(t))
	ctx := context.Background()

	o, err := svc.Create(ctx, 1, testItems(), "221B Baker Street")
	require.NoError(t, err)
	require.Equal(t, 25.0, o.TotalAmount)
	require.Equal(t, models.OrderStatusPending, o.Status)
	require.Equal(t, "221B Baker Street", o.ShippingAddress)
	require.False(t, o.CreatedAt.IsZero())

	items, err := svc.Items(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 10.0, items[0].PriceAtTime)
	require.Equal(t, uint(2), items[0].Quantity)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc := New(initTestDB(t))

	_, err := svc.Create(context.Background(), 1, nil, "addr")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(models.OrderStatusPending, models.OrderStatusConfirmed))
	require.True(t, CanTransition(models.OrderStatusPending, models.OrderStatusCancelled))
	require.True(t, CanTransition(models.OrderStatusConfirmed, models.OrderStatusShipped))
	require.True(t, CanTransition(models.OrderStatusConfirmed, models.OrderStatusCancelled))
	require.True(t, CanTransition(models.OrderStatusShipped, models.OrderStatusDelivered))

	require.False(t, CanTransition(models.OrderStatusPending, models.OrderStatusShipped))
	require.False(t, CanTransition(models.OrderStatusShipped, models.OrderStatusCancelled))
	require.False(t, CanTransition(models.OrderStatusDelivered, models.OrderStatusCancelled))
	require.False(t, CanTransition(models.OrderStatusCancelled, models.OrderStatusPending))
}

func TestSetStatus(t *testing.T) {
	svc := New(initTestDB(t))
	ctx := context.Background()

	o, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, o.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, updated.Status)

	_, err = svc.SetStatus(ctx, o.ID, models.OrderStatusDelivered)
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	require.Equal(t, models.OrderStatusConfirmed, transition.From)
	require.Equal(t, models.OrderStatusDelivered, transition.To)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, got.Status)

	_, err = svc.SetStatus(ctx, 999, models.OrderStatusConfirmed)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSetStatusKeepsTotalImmutable(t *testing.T) {
	svc := New(initTestDB(t))
	ctx := context.Background()

	o, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, o.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, 25.0, got.TotalAmount)

	items, err := svc.Items(ctx, o.ID)
	require.NoError(t, err)
	var sum float64
	for _, it := range items {
		sum += it.PriceAtTime * float64(it.Quantity)
	}
	require.Equal(t, got.TotalAmount, sum)
}

func TestCancel(t *testing.T) {
	svc := New(initTestDB(t))
	ctx := context.Background()

	pending, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)

	ok, err := svc.CanCancel(ctx, pending.ID)
	require.NoError(t, err)
	require.True(t, ok)

	cancelled, err := svc.Cancel(ctx, pending.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	// CONFIRMED may still be cancelled
	confirmed, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, confirmed.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, confirmed.ID)
	require.NoError(t, err)
}

func TestCancelShippedFails(t *testing.T) {
	svc := New(initTestDB(t))
	ctx := context.Background()

	o, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, o.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, o.ID, models.OrderStatusShipped)
	require.NoError(t, err)

	ok, err := svc.CanCancel(ctx, o.ID)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Cancel(ctx, o.ID)
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, got.Status)
}

func TestListings(t *testing.T) {
	svc := New(initTestDB(t))
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)
	second, err := svc.Create(ctx, 1, testItems(), "addr")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, testItems(), "addr")
	require.NoError(t, err)

	mine, err := svc.ListByBuyer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	// most recent first
	require.Equal(t, second.ID, mine[0].ID)
	require.Equal(t, first.ID, mine[1].ID)

	_, err = svc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	cancelled, err := svc.ListByStatus(ctx, models.OrderStatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	require.Equal(t, first.ID, cancelled[0].ID)
}
