package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
	"github.com/mmeshcher/restaurant-ordering/internal/validation"
)

func newTestBook(t *testing.T, window time.Duration) (*Book, *storage.MemoryStorage) {
	t.Helper()

	mem := storage.NewMemoryStorage()
	b := NewBook(mirror.New(mem, zap.NewNop()), zap.NewNop(), time.UTC, window)
	return b, mem
}

var dinner = time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	b, mem := newTestBook(t, time.Second)
	ctx := context.Background()

	r, err := b.Create(ctx, dinner, "4")
	require.NoError(t, err)
	assert.Equal(t, "6/1/2025, 7:00:00 PM", r.Date)
	assert.Equal(t, "4", r.Guests)

	raw, err := mem.Get(ctx, storage.KeyReservations)
	require.NoError(t, err)
	assert.Contains(t, raw, r.ID)
}

func TestCreate_InvalidGuests(t *testing.T) {
	b, _ := newTestBook(t, time.Second)

	for _, g := range []string{"", "0", "-1", "many"} {
		_, err := b.Create(context.Background(), dinner, g)
		require.ErrorIs(t, err, validation.ErrInvalidGuests, g)
	}
	assert.Empty(t, b.List())
}

func TestCancel_SettlesAfterWindow(t *testing.T) {
	b, mem := newTestBook(t, 20*time.Millisecond)
	ctx := context.Background()

	r, err := b.Create(ctx, dinner, "2")
	require.NoError(t, err)

	require.NoError(t, b.Cancel(ctx, r.ID))
	assert.Empty(t, b.List())

	// До истечения окна хранилище ещё содержит бронь.
	raw, err := mem.Get(ctx, storage.KeyReservations)
	require.NoError(t, err)
	assert.Contains(t, raw, r.ID)

	require.Eventually(t, func() bool {
		raw, err := mem.Get(ctx, storage.KeyReservations)
		return err == nil && raw == "[]"
	}, time.Second, 5*time.Millisecond)

	_, err = b.Undo(ctx)
	require.ErrorIs(t, err, ErrNothingToUndo)
}

func TestCancel_Undo(t *testing.T) {
	b, _ := newTestBook(t, time.Minute)
	ctx := context.Background()

	first, err := b.Create(ctx, dinner, "2")
	require.NoError(t, err)
	second, err := b.Create(ctx, dinner.Add(time.Hour), "3")
	require.NoError(t, err)

	require.NoError(t, b.Cancel(ctx, first.ID))
	require.Len(t, b.List(), 1)

	restored, err := b.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, restored.ID)

	list := b.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	_, err = b.Undo(ctx)
	require.ErrorIs(t, err, ErrNothingToUndo)
}

func TestCancel_Unknown(t *testing.T) {
	b, _ := newTestBook(t, time.Minute)

	require.ErrorIs(t, b.Cancel(context.Background(), "nope"), ErrNotFound)
}

func TestSettle(t *testing.T) {
	b, mem := newTestBook(t, time.Hour)
	ctx := context.Background()

	r, err := b.Create(ctx, dinner, "2")
	require.NoError(t, err)
	require.NoError(t, b.Cancel(ctx, r.ID))

	b.Settle()

	raw, err := mem.Get(ctx, storage.KeyReservations)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestRehydrate(t *testing.T) {
	b, mem := newTestBook(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, storage.KeyReservations, `[{"id":"r1","date":"6/1/2025, 7:00:00 PM","guests":"2"}]`))
	b.Rehydrate(ctx)
	require.Len(t, b.List(), 1)

	require.NoError(t, mem.Set(ctx, storage.KeyReservations, `[{`))
	b.Rehydrate(ctx)
	assert.Empty(t, b.List())
}
