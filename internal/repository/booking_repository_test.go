package repository

import (
	"context"
	"testing"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(orderID *uuid.UUID) *model.Booking {
	now := time.Now()
	ref := "brunch-2026-11-01"
	return &model.Booking{
		ID:           uuid.New(),
		OrderID:      orderID,
		Status:       model.BookingStatusPending,
		Type:         model.BookingTypeEvent,
		Date:         now.Add(72 * time.Hour),
		People:       2,
		Label:        "Sunday brunch",
		EventRef:     &ref,
		Email:        "guest@example.com",
		Name:         "Guest",
		Phone:        "+390000000",
		AgreePrivacy: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func createBooking(t *testing.T, pool *pgxpool.Pool, b *model.Booking) {
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewBookingRepository(pool, zerolog.Nop()).Create(ctx, tx, b))
	require.NoError(t, tx.Commit(ctx))
}

func TestBookingRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBookingRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := seedOrder(t, pool, seedCart(t, pool, 1000, 1))
	b := newTestBooking(&order.ID)
	createBooking(t, pool, b)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.BookingTypeEvent, got.Type)
	assert.Equal(t, 2, got.People)
	require.NotNil(t, got.EventRef)
	assert.Equal(t, "brunch-2026-11-01", *got.EventRef)

	byOrder, err := repo.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, byOrder)
	assert.Equal(t, b.ID, byOrder.ID)

	missing, err := repo.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookingRepository_OnePerOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBookingRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := seedOrder(t, pool, seedCart(t, pool, 1000, 1))
	createBooking(t, pool, newTestBooking(&order.ID))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = repo.Create(ctx, tx, newTestBooking(&order.ID))
	assert.Error(t, err)
}

func TestBookingRepository_UpdateAndConfirm(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBookingRepository(pool, zerolog.Nop())
	ctx := context.Background()

	b := newTestBooking(nil)
	createBooking(t, pool, b)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	locked, err := repo.GetByIDForUpdate(ctx, tx, b.ID)
	require.NoError(t, err)
	locked.Status = model.BookingStatusPendingPayment
	locked.People = 4
	require.NoError(t, repo.Update(ctx, tx, locked))

	ok, err := repo.Confirm(ctx, tx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Confirm(ctx, tx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "confirming twice must not report a transition")

	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status)
	assert.Equal(t, 4, got.People)
}

func TestBookingRepository_ConfirmOnlyFromPending(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBookingRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		status model.BookingStatus
		wantOK bool
	}{
		{status: model.BookingStatusPending, wantOK: true},
		{status: model.BookingStatusPendingPayment, wantOK: true},
		{status: model.BookingStatusConfirmed, wantOK: false},
		{status: model.BookingStatusCancelled, wantOK: false},
		{status: model.BookingStatusExpired, wantOK: false},
		{status: model.BookingStatusFailed, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := newTestBooking(nil)
			b.Status = tt.status
			createBooking(t, pool, b)

			tx, err := pool.Begin(ctx)
			require.NoError(t, err)
			ok, err := repo.Confirm(ctx, tx, b.ID)
			require.NoError(t, err)
			require.NoError(t, tx.Commit(ctx))

			assert.Equal(t, tt.wantOK, ok)

			got, err := repo.GetByID(ctx, b.ID)
			require.NoError(t, err)
			if tt.wantOK {
				assert.Equal(t, model.BookingStatusConfirmed, got.Status)
			} else {
				assert.Equal(t, tt.status, got.Status)
			}
		})
	}
}

func TestVerificationRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVerificationRepository(pool, zerolog.Nop())
	ctx := context.Background()

	b := newTestBooking(nil)
	createBooking(t, pool, b)

	now := time.Now()
	newVerification := func(hash string) *model.BookingVerification {
		return &model.BookingVerification{
			ID:        uuid.New(),
			BookingID: b.ID,
			TokenHash: hash,
			Email:     b.Email,
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
		}
	}
	first := newVerification("hash-one")
	second := newVerification("hash-two")

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, first))
	require.NoError(t, repo.Create(ctx, tx, second))
	require.NoError(t, tx.Commit(ctx))

	tx, err = pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got, err := repo.GetByTokenHashForUpdate(ctx, tx, "hash-two")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Nil(t, got.UsedAt)

	ok, err := repo.MarkUsed(ctx, tx, got.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkUsed(ctx, tx, got.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := repo.DeleteSiblings(ctx, tx, b.ID, got.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := repo.GetByTokenHashForUpdate(ctx, tx, "hash-one")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
