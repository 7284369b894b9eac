package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStorage) {
	t.Helper()

	mem := storage.NewMemoryStorage()
	s := NewStore(mirror.New(mem, zap.NewNop()), zap.NewNop(), time.UTC)
	s.now = func() time.Time { return time.Date(2025, 3, 14, 18, 30, 5, 0, time.UTC) }

	return s, mem
}

func item(id, name string, price int64) model.CartItem {
	return model.CartItem{ID: id, Name: name, Price: decimal.NewFromInt(price), Image: id + ".png"}
}

func TestAddItem_MergesByID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item("1", "Burger", 500))
	s.AddItem(ctx, item("1", "Burger", 500))
	s.AddItem(ctx, item("2", "Salad", 300))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 3, s.Count())
}

func TestAddItem_IgnoresIncomingQuantity(t *testing.T) {
	s, _ := newTestStore(t)

	in := item("1", "Burger", 500)
	in.Quantity = 7
	s.AddItem(context.Background(), in)

	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestQuantityAdjustments(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item("1", "Burger", 500))
	s.IncreaseQuantity(ctx, "1")
	assert.Equal(t, 2, s.Items()[0].Quantity)

	s.DecreaseQuantity(ctx, "1")
	require.Len(t, s.Items(), 1)
	assert.Equal(t, 1, s.Items()[0].Quantity)

	s.DecreaseQuantity(ctx, "1")
	assert.Empty(t, s.Items())

	// Операции над отсутствующей позицией ничего не делают.
	s.IncreaseQuantity(ctx, "missing")
	s.DecreaseQuantity(ctx, "missing")
	s.RemoveItem(ctx, "missing")
	assert.Empty(t, s.Items())
}

func TestRemoveItemAndClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item("1", "Burger", 500))
	s.AddItem(ctx, item("2", "Salad", 300))
	s.RemoveItem(ctx, "1")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)

	s.ClearCart(ctx)
	assert.Empty(t, s.Items())
	assert.True(t, s.Subtotal().IsZero())
}

func TestCommitOrder_Empty(t *testing.T) {
	s, mem := newTestStore(t)

	order, err := s.CommitOrder(context.Background())
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Empty(t, s.History())

	_, err = mem.Get(context.Background(), storage.KeyOrderHistory)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommitOrder_BurgerAndSalad(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item("b", "Burger", 500))
	s.AddItem(ctx, item("b", "Burger", 500))
	s.AddItem(ctx, item("s", "Salad", 300))

	order, err := s.CommitOrder(ctx)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.True(t, order.Total.Equal(decimal.NewFromInt(1300)), "total = %s", order.Total)
	assert.Equal(t, "3/14/2025, 6:30:05 PM", order.Date)
	assert.NotEmpty(t, order.ID)

	assert.Empty(t, s.Items())

	history := s.History()
	require.Len(t, history, 1)
	require.Len(t, history[0].Items, 2)
	assert.Equal(t, 2, history[0].Items[0].Quantity)
	assert.Equal(t, 1, history[0].Items[1].Quantity)

	raw, err := mem.Get(ctx, storage.KeyOrderHistory)
	require.NoError(t, err)
	assert.Contains(t, raw, order.ID)
}

func TestCommitOrder_SnapshotIsIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item("b", "Burger", 500))
	order, err := s.CommitOrder(ctx)
	require.NoError(t, err)

	s.AddItem(ctx, item("b", "Burger", 500))
	s.IncreaseQuantity(ctx, "b")

	got, err := s.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestCommitOrder_IDsAreSortable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		s.AddItem(ctx, item("b", "Burger", 500))
		o, err := s.CommitOrder(ctx)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestCommitOrder_PersistenceFailure(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	mem.FailWrites(errors.New("disk full"))

	s.AddItem(ctx, item("b", "Burger", 500))
	order, err := s.CommitOrder(ctx)
	require.ErrorIs(t, err, mirror.ErrDeferred)
	require.NotNil(t, order)

	assert.Empty(t, s.Items())
	assert.Len(t, s.History(), 1)
}

func TestReorder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	x := item("x", "Pizza", 700)
	x.Quantity = 3
	s.Reorder(ctx, model.Order{ID: "o1", Items: []model.CartItem{x}})

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "x", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)

	s.Reorder(ctx, model.Order{ID: "o1", Items: []model.CartItem{x}})
	assert.Equal(t, 6, s.Items()[0].Quantity)
}

func TestOrder_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Order("nope")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRehydrate(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, storage.KeyOrderHistory,
		`[{"id":"o1","items":[{"id":"b","name":"Burger","price":500,"quantity":2,"image":""}],"total":1000,"date":"1/1/2025, 1:00:00 PM"}]`))

	s.Rehydrate(ctx)

	history := s.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Total.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 2, history[0].Items[0].Quantity)
}

func TestRehydrate_Corrupt(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, storage.KeyOrderHistory, `[{"id":`))
	s.Rehydrate(ctx)

	assert.Empty(t, s.History())
	_, err := mem.Get(ctx, storage.KeyOrderHistory)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated AddItem keeps one line with quantity = calls", prop.ForAll(
		func(n int) bool {
			s, _ := newTestStore(t)
			for i := 0; i < n; i++ {
				s.AddItem(context.Background(), item("x", "Pizza", 700))
			}
			items := s.Items()
			return len(items) == 1 && items[0].Quantity == n
		},
		gen.IntRange(1, 50),
	))

	properties.Property("DecreaseQuantity removes only at quantity 1", prop.ForAll(
		func(n int) bool {
			s, _ := newTestStore(t)
			ctx := context.Background()
			for i := 0; i < n; i++ {
				s.AddItem(ctx, item("x", "Pizza", 700))
			}
			s.DecreaseQuantity(ctx, "x")
			items := s.Items()
			if n == 1 {
				return len(items) == 0
			}
			return len(items) == 1 && items[0].Quantity == n-1
		},
		gen.IntRange(1, 20),
	))

	properties.Property("CommitOrder total equals pre-commit subtotal", prop.ForAll(
		func(prices []int64) bool {
			s, _ := newTestStore(t)
			ctx := context.Background()
			for i, p := range prices {
				s.AddItem(ctx, item(string(rune('a'+i%26)), "Dish", p))
			}
			before := s.Subtotal()
			historyBefore := len(s.History())

			order, err := s.CommitOrder(ctx)
			if err != nil {
				return false
			}
			if len(prices) == 0 {
				return order == nil && len(s.History()) == historyBefore
			}
			return order.Total.Equal(before) &&
				len(s.Items()) == 0 &&
				len(s.History()) == historyBefore+1
		},
		gen.SliceOf(gen.Int64Range(0, 10000)),
	))

	properties.TestingRun(t)
}

// gatedStorage задерживает Set до закрытия release.
type gatedStorage struct {
	*storage.MemoryStorage

	entered chan struct{}
	release chan struct{}
}

func (s *gatedStorage) Set(ctx context.Context, key, value string) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStorage.Set(ctx, key, value)
}

func TestCommitOrder_ReadsNotBlockedByPersistence(t *testing.T) {
	mem := &gatedStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	s := NewStore(mirror.New(mem, zap.NewNop()), zap.NewNop(), time.UTC)
	ctx := context.Background()

	s.AddItem(ctx, item("b", "Burger", 500))

	done := make(chan error, 1)
	go func() {
		_, err := s.CommitOrder(ctx)
		done <- err
	}()

	select {
	case <-mem.entered:
	case <-time.After(time.Second):
		t.Fatal("commit did not reach storage")
	}

	read := make(chan decimal.Decimal, 1)
	go func() { read <- s.Subtotal() }()

	select {
	case total := <-read:
		assert.True(t, total.IsZero())
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Subtotal blocked while the order was being persisted")
	}

	s.AddItem(ctx, item("s", "Salad", 300))
	assert.Equal(t, 1, s.Count())
	assert.Len(t, s.History(), 1)

	close(mem.release)
	require.NoError(t, <-done)
}

func TestSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	items, total, count := s.Snapshot()
	assert.Empty(t, items)
	assert.True(t, total.IsZero())
	assert.Zero(t, count)

	s.AddItem(ctx, item("b", "Burger", 500))
	s.AddItem(ctx, item("b", "Burger", 500))
	s.AddItem(ctx, item("s", "Salad", 300))

	items, total, count = s.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, "1300", total.String())
	assert.Equal(t, 3, count)

	items[0].Quantity = 99
	assert.Equal(t, 3, s.Count())
}
