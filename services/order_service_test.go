package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedOrder(t *testing.T, store *memStore, userID uuid.UUID, item models.MenuItem, amount int) *models.OrderInfo {
	t.Helper()
	ctx := context.Background()
	order, err := placeOrder(ctx, store, userID, map[string]int{item.ID.String(): amount})
	require.NoError(t, err)
	return order
}

func TestOrderAdvance(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := new(MockPublisher)
	svc := NewOrderService(store, pub, nil, zap.NewNop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.(*orderServiceImpl).now = func() time.Time { return fixed }

	pizza := store.addItem("Pizza", 500, true, false)
	order := seedOrder(t, store, uuid.New(), pizza, 2)
	assert.Equal(t, models.OrderStatusPlaced, order.Status())

	statusIs := func(s models.OrderStatus) interface{} {
		return mock.MatchedBy(func(e models.OrderAdvancedEvent) bool { return e.Status == string(s) })
	}
	pub.On("Publish", mock.Anything, order.ID.String(), statusIs(models.OrderStatusCooked)).Return(nil).Once()
	pub.On("Publish", mock.Anything, order.ID.String(), statusIs(models.OrderStatusDelivered)).Return(nil).Once()

	cooked, err := svc.Advance(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCooked, cooked.Status())
	assert.Equal(t, fixed, *cooked.Cooked)

	delivered, err := svc.Advance(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status())

	_, err = svc.Advance(ctx, order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrOrderDelivered))

	stored, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed, *stored.Delivered)
	assert.Equal(t, 1000, stored.TotalCost)
	pub.AssertExpectations(t)

	t.Run("Unknown order", func(t *testing.T) {
		_, err := svc.Advance(ctx, uuid.New())
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestOrderReads(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewOrderService(store, nil, nil, zap.NewNop())
	pizza := store.addItem("Pizza", 500, true, false)
	owner, stranger := uuid.New(), uuid.New()
	first := seedOrder(t, store, owner, pizza, 1)
	second := seedOrder(t, store, owner, pizza, 3)
	seedOrder(t, store, stranger, pizza, 1)

	t.Run("Owner sees own orders newest first", func(t *testing.T) {
		orders, err := svc.ListForUser(ctx, owner)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.False(t, orders[0].Ordered.Before(orders[1].Ordered))
	})

	t.Run("Empty list is not nil", func(t *testing.T) {
		orders, err := svc.ListForUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("Get own order", func(t *testing.T) {
		order, err := svc.GetForUser(ctx, owner, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 1500, order.TotalCost)
	})

	t.Run("Someone else's order is not found", func(t *testing.T) {
		_, err := svc.GetForUser(ctx, stranger, first.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Admin listing paginates", func(t *testing.T) {
		orders, total, err := svc.ListAll(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, orders, 2)
	})
}

func TestOrderLineEdits(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewOrderService(store, nil, nil, zap.NewNop())
	pizza := store.addItem("Pizza", 500, true, false)
	soup := store.addItem("Soup", 120, true, false)
	order, err := placeOrder(ctx, store, uuid.New(), map[string]int{
		pizza.ID.String(): 2,
		soup.ID.String():  3,
	})
	require.NoError(t, err)
	require.Equal(t, 1360, order.TotalCost)

	lineOf := func(o *models.OrderInfo, item models.MenuItem) models.OrderContents {
		for _, l := range o.Contents {
			if l.MenuItemID == item.ID {
				return l
			}
		}
		t.Fatalf("no line for %s", item.Name)
		return models.OrderContents{}
	}
	soupLine := lineOf(order, soup)

	t.Run("Amount change moves the total", func(t *testing.T) {
		updated, err := svc.UpdateLine(ctx, order.ID, soupLine.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 600, lineOf(updated, soup).Cost)
		assert.Equal(t, 1600, updated.TotalCost)
	})

	t.Run("Amount outside the order volume is rejected", func(t *testing.T) {
		for _, amount := range []int{0, 21} {
			_, err := svc.UpdateLine(ctx, order.ID, soupLine.ID, amount)
			assert.Contains(t, apperrors.From(err).Fields, "amount")
		}
		stored, err := store.Orders().FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 1600, stored.TotalCost)
	})

	t.Run("Delete drops the line cost from the total", func(t *testing.T) {
		updated, err := svc.DeleteLine(ctx, order.ID, soupLine.ID)
		require.NoError(t, err)
		require.Len(t, updated.Contents, 1)
		assert.Equal(t, 1000, updated.TotalCost)
	})

	t.Run("Line of another order is not found", func(t *testing.T) {
		other := seedOrder(t, store, uuid.New(), pizza, 1)
		pizzaLine := lineOf(order, pizza)

		_, err := svc.UpdateLine(ctx, other.ID, pizzaLine.ID, 3)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = svc.DeleteLine(ctx, uuid.New(), pizzaLine.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}
