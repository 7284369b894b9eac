// Package cart содержит состояние корзины и журнал оформленных заказов.
package cart

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
)

// DateLayout задаёт формат даты заказа для отображения.
const DateLayout = "1/2/2006, 3:04:05 PM"

// ErrOrderNotFound возвращается, если заказ отсутствует в истории.
var ErrOrderNotFound = errors.New("order not found")

// Store хранит корзину и историю заказов. Корзина живёт только в памяти,
// история зеркалируется в хранилище под ключом orderHistory.
type Store struct {
	mirror *mirror.Mirror
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location

	mu      sync.RWMutex
	items   []model.CartItem
	history []model.Order
}

// NewStore создаёт пустую корзину. loc задаёт часовой пояс даты заказа.
func NewStore(m *mirror.Mirror, logger *zap.Logger, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		mirror: m,
		logger: logger,
		now:    time.Now,
		loc:    loc,
	}
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(i model.CartItem) bool { return i.ID == id })
}

// AddItem добавляет позицию. Если позиция с таким id уже есть, её количество увеличивается на 1.
func (s *Store) AddItem(_ context.Context, item model.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.add(item)
}

func (s *Store) add(item model.CartItem) {
	if i := s.indexOf(item.ID); i >= 0 {
		s.items[i].Quantity++
		return
	}
	item.Quantity = 1
	s.items = append(s.items, item)
}

// RemoveItem удаляет позицию из корзины.
func (s *Store) RemoveItem(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
}

// IncreaseQuantity увеличивает количество позиции на 1.
func (s *Store) IncreaseQuantity(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.items[i].Quantity++
	}
}

// DecreaseQuantity уменьшает количество позиции на 1; позиция с количеством 1 удаляется.
func (s *Store) DecreaseQuantity(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	if s.items[i].Quantity > 1 {
		s.items[i].Quantity--
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
}

// ClearCart очищает корзину, не трогая историю.
func (s *Store) ClearCart(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
}

// CommitOrder превращает корзину в заказ, добавляет его в историю и очищает корзину.
// Для пустой корзины возвращает nil без изменений. mirror.ErrDeferred вместе с заказом
// означает, что заказ оформлен, а запись истории отложена.
func (s *Store) CommitOrder(ctx context.Context) (*model.Order, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	now := s.now().In(s.loc)
	order := model.Order{
		ID:    id.String(),
		Items: slices.Clone(s.items),
		Total: subtotal(s.items),
		Date:  now.Format(DateLayout),
	}

	s.history = append(s.history, order)
	s.items = nil
	w := s.mirror.Stage(storage.KeyOrderHistory, s.history)
	s.mu.Unlock()

	s.logger.Info("order committed",
		zap.String("order", order.ID),
		zap.Int("lines", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)

	return &order, w.Commit(ctx)
}

// Reorder добавляет позиции заказа в корзину. Каждая единица количества
// добавляется отдельно через правило слияния AddItem.
func (s *Store) Reorder(_ context.Context, order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range order.Items {
		for n := 0; n < item.Quantity; n++ {
			s.add(item)
		}
	}
}

// LoadHistory заменяет историю заказов в памяти.
func (s *Store) LoadHistory(orders []model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = slices.Clone(orders)
}

// Rehydrate загружает историю заказов из хранилища при старте.
// Повреждённое значение удаляется, история остаётся пустой.
func (s *Store) Rehydrate(ctx context.Context) {
	var orders []model.Order
	found, err := s.mirror.Load(ctx, storage.KeyOrderHistory, &orders)
	if err != nil {
		s.logger.Warn("order history rehydration failed, starting empty", zap.Error(err))
		if errors.Is(err, mirror.ErrCorrupt) {
			if err := s.mirror.Delete(ctx, storage.KeyOrderHistory); err != nil {
				s.logger.Warn("remove corrupt order history", zap.Error(err))
			}
		}
		s.LoadHistory(nil)
		return
	}
	if !found {
		return
	}

	s.LoadHistory(orders)
}

// Snapshot возвращает позиции, сумму и количество единиц, прочитанные за одну блокировку.
func (s *Store) Snapshot() ([]model.CartItem, decimal.Decimal, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items), subtotal(s.items), units(s.items)
}

// Items возвращает копию позиций корзины.
func (s *Store) Items() []model.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items)
}

// History возвращает копию истории заказов в порядке оформления.
func (s *Store) History() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.Order, len(s.history))
	for i, o := range s.history {
		o.Items = slices.Clone(o.Items)
		res[i] = o
	}
	return res
}

// Order возвращает заказ из истории по идентификатору.
func (s *Store) Order(id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.history {
		if o.ID == id {
			o.Items = slices.Clone(o.Items)
			return o, nil
		}
	}
	return model.Order{}, ErrOrderNotFound
}

// Subtotal вычисляет сумму корзины при каждом вызове.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return subtotal(s.items)
}

// Count возвращает общее количество единиц в корзине.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return units(s.items)
}

func units(items []model.CartItem) int {
	n := 0
	for _, i := range items {
		n += i.Quantity
	}
	return n
}

func subtotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, i := range items {
		total = total.Add(i.LineTotal())
	}
	return total
}
