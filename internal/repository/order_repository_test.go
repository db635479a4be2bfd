package repository

import (
	"context"
	"testing"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	cart := seedCart(t, pool, 1500, 2)
	order := seedOrder(t, pool, cart)

	t.Run("By ID", func(t *testing.T) {
		got, items, err := repo.GetByID(ctx, order.ID)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, order.CartID, got.CartID)
		assert.Equal(t, model.OrderStatusPendingPayment, got.Status)
		assert.Equal(t, int64(3000), got.TotalCents)
		assert.Nil(t, got.FinalizedAt)
		require.Len(t, items, 1)
		assert.Equal(t, "Tasting menu", items[0].Label)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("Latest by cart", func(t *testing.T) {
		got, _, err := repo.GetLatestByCartID(ctx, cart.ID)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("Missing order", func(t *testing.T) {
		got, items, err := repo.GetByID(ctx, uuid.New())

		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.Nil(t, items)
	})
}

func TestOrderRepository_CreateItems_Empty(t *testing.T) {
	repo := NewOrderRepository(nil, zerolog.Nop())

	err := repo.CreateItems(context.Background(), nil, nil)

	assert.NoError(t, err)
}

func TestOrderRepository_PendingUniquePerCart(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	cart := seedCart(t, pool, 1000, 1)
	seedOrder(t, pool, cart)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	pending, err := repo.HasPendingForCart(ctx, tx, cart.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	now := time.Now()
	err = repo.Create(ctx, tx, &model.Order{
		ID:         uuid.New(),
		CartID:     cart.ID,
		Email:      "other@example.com",
		Name:       "Other",
		Phone:      "1",
		Status:     model.OrderStatusPendingPayment,
		TotalCents: 1000,
		Currency:   "EUR",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	assert.Error(t, err, "a second pending order for the same cart must be rejected")
}

func TestOrderRepository_MarkFinalized_Once(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := seedOrder(t, pool, seedCart(t, pool, 1000, 1))

	finalize := func() bool {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		ok, err := repo.MarkFinalized(ctx, tx, order.ID)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
		return ok
	}

	assert.True(t, finalize())
	assert.False(t, finalize())

	got, _, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status)
	assert.NotNil(t, got.FinalizedAt)
}

func TestOrderRepository_MarkFinalized_KeepsConfirmed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := seedOrder(t, pool, seedCart(t, pool, 1000, 1))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	ok, err := repo.MarkConfirmed(ctx, tx, order.ID, model.Customer{Email: "new@example.com", Name: "New", Phone: "2"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkFinalized(ctx, tx, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Commit(ctx))

	got, _, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)
	assert.Equal(t, "new@example.com", got.Email)
}

func TestOrderRepository_MarkFailed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := seedOrder(t, pool, seedCart(t, pool, 1000, 1))

	ok, err := repo.MarkFailed(ctx, order.ID, "declined")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkFailed(ctx, order.ID, "declined again")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("Failed order is never finalized", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		ok, err := repo.MarkFinalized(ctx, tx, order.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	got, _, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Equal(t, "declined", *got.FailureReason)
}

func TestOrderRepository_SetPaymentRef(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := seedOrder(t, pool, seedCart(t, pool, 1000, 1))

	require.NoError(t, repo.SetPaymentRef(ctx, order.ID, "v1.abc"))

	got, _, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentRef)
	assert.Equal(t, "v1.abc", *got.PaymentRef)
}
