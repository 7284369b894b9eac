package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/auth"
	"github.com/mmeshcher/restaurant-ordering/internal/cart"
	"github.com/mmeshcher/restaurant-ordering/internal/catalog"
	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
	"github.com/mmeshcher/restaurant-ordering/internal/reservation"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
	"github.com/mmeshcher/restaurant-ordering/internal/support"
	"github.com/mmeshcher/restaurant-ordering/internal/validation"
	"github.com/mmeshcher/restaurant-ordering/internal/voice"
)

const ownerEmail = "owner@example.com"

func newTestService(t *testing.T, store storage.Storage) *Service {
	t.Helper()

	logger := zap.NewNop()
	m := mirror.New(store, logger)
	session := auth.NewSession(m, logger)
	dir := auth.NewDirectory(m, session, logger, []string{ownerEmail})

	menu, err := catalog.Default()
	require.NoError(t, err)

	svc := NewService(
		m,
		dir,
		cart.NewStore(m, logger, time.UTC),
		menu,
		reservation.NewBook(m, logger, time.UTC, time.Minute),
		support.NewDesk(m, logger),
	)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestAddToCart_RejectsOutOfStock(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()

	view, err := svc.AddToCart(ctx, "5")
	require.ErrorIs(t, err, catalog.ErrOutOfStock)
	assert.Empty(t, view.Items)

	_, err = svc.AddToCart(ctx, "404")
	require.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestCartFlow(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "1")
	require.NoError(t, err)
	view, err := svc.AddToCart(ctx, "1")
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "1000", view.Subtotal.String())

	view = svc.IncreaseQuantity(ctx, "1")
	assert.Equal(t, 3, view.Count)

	view = svc.DecreaseQuantity(ctx, "1")
	assert.Equal(t, 2, view.Count)

	view = svc.RemoveFromCart(ctx, "1")
	assert.Equal(t, 0, view.Count)
	assert.NotNil(t, view.Items)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())

	_, err := svc.Checkout(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, svc.Orders())
}

func TestCheckoutAndReorder(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "1")
	require.NoError(t, err)
	svc.IncreaseQuantity(ctx, "1")
	svc.IncreaseQuantity(ctx, "1")

	order, err := svc.Checkout(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "1500", order.Total.String())
	assert.Equal(t, 0, svc.Cart().Count)

	require.Len(t, svc.Orders(), 1)

	found, err := svc.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	view, err := svc.Reorder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	_, err = svc.Reorder(ctx, "missing")
	require.ErrorIs(t, err, cart.ErrOrderNotFound)
}

func TestCheckout_DeferredWriteKeepsOrder(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "2")
	require.NoError(t, err)

	store.FailWrites(errors.New("disk full"))

	order, err := svc.Checkout(ctx)
	require.ErrorIs(t, err, mirror.ErrDeferred)
	assert.NotEmpty(t, order.ID)
	assert.Len(t, svc.Orders(), 1)
	assert.Equal(t, 1, svc.PendingWrites())
}

func TestNavigation_FollowsSession(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()

	assert.Len(t, svc.Tabs(), 3)
	assert.False(t, svc.Guard(navigation.RouteBusiness).Allowed)

	_, err := svc.SignUp(ctx, auth.SignUpForm{
		Email:    ownerEmail,
		Password: "secret",
		Name:     "Owner",
		Phone:    "555",
	})
	require.NoError(t, err)

	assert.Len(t, svc.Tabs(), 4)
	assert.True(t, svc.Guard(navigation.RouteBusiness).Allowed)

	require.NoError(t, svc.Logout(ctx))

	decision := svc.Guard(navigation.RouteBusiness)
	assert.False(t, decision.Allowed)
	assert.Equal(t, navigation.LandingPath, decision.Redirect)
}

func TestRehydrate_RestoresState(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()

	first := newTestService(t, store)
	_, err := first.SignUp(ctx, auth.SignUpForm{
		Email:    "guest@example.com",
		Password: "secret",
		Name:     "Guest",
		Phone:    "555",
	})
	require.NoError(t, err)
	_, err = first.AddToCart(ctx, "3")
	require.NoError(t, err)
	_, err = first.Checkout(ctx)
	require.NoError(t, err)
	_, err = first.Reserve(ctx, time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC), "2")
	require.NoError(t, err)

	second := newTestService(t, store)
	second.Rehydrate(ctx)

	user, ok := second.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "guest@example.com", user.Email)
	assert.Len(t, second.Orders(), 1)
	assert.Len(t, second.Reservations(), 1)
	assert.Equal(t, 0, second.Cart().Count)
}

func TestReserve(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) }

	r, err := svc.Reserve(ctx, time.Time{}, "4")
	require.NoError(t, err)
	assert.Equal(t, "1/2/2026, 3:04:05 PM", r.Date)

	_, err = svc.Reserve(ctx, time.Time{}, "0")
	require.ErrorIs(t, err, validation.ErrInvalidGuests)

	require.NoError(t, svc.CancelReservation(ctx, r.ID))
	assert.Empty(t, svc.Reservations())

	restored, err := svc.UndoCancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, r.ID, restored.ID)
	assert.Len(t, svc.Reservations(), 1)
}

func TestVoiceOrder(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()

	res := svc.VoiceOrder(ctx, "I'd like a classic burger please", true)
	assert.Equal(t, voice.StatusCompleted, res.Status)
	assert.Equal(t, 1, svc.Cart().Count)

	res = svc.VoiceOrder(ctx, "classic burger", false)
	assert.Equal(t, voice.StatusNoPermission, res.Status)
	assert.Equal(t, 1, svc.Cart().Count)
}

func TestInsight_Cycles(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())

	v := svc.Insight(4)
	assert.Equal(t, 4, v.Index)
	assert.Equal(t, 0, v.Next)
	assert.Equal(t, 5, v.Total)

	assert.Equal(t, svc.Insight(0).Text, svc.Insight(5).Text)
	assert.Equal(t, 0, svc.Insight(5).Index)
}

func TestIssues(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStorage())
	ctx := context.Background()

	assert.NotNil(t, svc.Issues(ctx))

	_, err := svc.SubmitIssue(ctx, "", "text")
	require.ErrorIs(t, err, validation.ErrRequired)

	issue, err := svc.SubmitIssue(ctx, "Cold soup", "The soup was cold")
	require.NoError(t, err)
	assert.Equal(t, []string{issue.ID}, []string{svc.Issues(ctx)[0].ID})
}
