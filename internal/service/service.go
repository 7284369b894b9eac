// Package service связывает контейнеры состояния ресторана в единый фасад для HTTP-слоя.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-ordering/internal/auth"
	"github.com/mmeshcher/restaurant-ordering/internal/cart"
	"github.com/mmeshcher/restaurant-ordering/internal/catalog"
	"github.com/mmeshcher/restaurant-ordering/internal/insights"
	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
	"github.com/mmeshcher/restaurant-ordering/internal/reservation"
	"github.com/mmeshcher/restaurant-ordering/internal/support"
	"github.com/mmeshcher/restaurant-ordering/internal/voice"
)

// ErrEmptyCart возвращается при оформлении пустой корзины.
var ErrEmptyCart = errors.New("cart is empty")

// CartView содержит снимок корзины с производными значениями.
type CartView struct {
	Items    []model.CartItem `json:"items"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Count    int              `json:"count"`
}

// InsightView содержит подсказку аналитики и индекс следующей.
type InsightView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Next  int    `json:"next"`
	Total int    `json:"total"`
}

// Service содержит бизнес-логику приложения ресторана.
type Service struct {
	mirror    *mirror.Mirror
	directory *auth.Directory
	cart      *cart.Store
	menu      *catalog.Catalog
	book      *reservation.Book
	desk      *support.Desk
	nav       *navigation.Resolver

	typingInterval time.Duration
	now            func() time.Time
}

// NewService создаёт сервис поверх готовых контейнеров.
func NewService(
	m *mirror.Mirror,
	directory *auth.Directory,
	store *cart.Store,
	menu *catalog.Catalog,
	book *reservation.Book,
	desk *support.Desk,
) *Service {
	return &Service{
		mirror:         m,
		directory:      directory,
		cart:           store,
		menu:           menu,
		book:           book,
		desk:           desk,
		nav:            navigation.NewResolver(directory.Session()),
		typingInterval: insights.DefaultTypingInterval,
		now:            time.Now,
	}
}

// Rehydrate восстанавливает сессию, историю заказов и брони из хранилища.
// Ошибки чтения не возвращаются: каждый контейнер откатывается к пустому состоянию.
func (s *Service) Rehydrate(ctx context.Context) {
	s.directory.Session().Rehydrate(ctx)
	s.cart.Rehydrate(ctx)
	s.book.Rehydrate(ctx)
}

// Close фиксирует незавершённую отмену брони.
func (s *Service) Close() error {
	s.book.Settle()
	return nil
}

// PendingWrites возвращает число записей, ожидающих повторной попытки.
func (s *Service) PendingWrites() int {
	return s.mirror.Pending()
}

// SignUp регистрирует пользователя и открывает сессию.
func (s *Service) SignUp(ctx context.Context, form auth.SignUpForm) (model.User, error) {
	return s.directory.SignUp(ctx, form)
}

// Login открывает сессию по email и паролю.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, error) {
	return s.directory.Login(ctx, email, password)
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context) error {
	return s.directory.Logout(ctx)
}

// CurrentUser возвращает пользователя текущей сессии.
func (s *Service) CurrentUser() (model.User, bool) {
	return s.directory.Session().Current()
}

// UpdateProfile меняет профиль текущего пользователя.
func (s *Service) UpdateProfile(ctx context.Context, form auth.ProfileForm) (model.User, error) {
	return s.directory.UpdateProfile(ctx, form)
}

// Tabs возвращает вкладки, доступные текущему пользователю.
func (s *Service) Tabs() []navigation.Tab {
	return s.nav.Tabs()
}

// Guard проверяет доступ к разделу.
func (s *Service) Guard(route navigation.Route) navigation.Decision {
	return s.nav.Guard(route)
}

// Menu возвращает всё меню или блюда одной категории.
func (s *Service) Menu(category string) []model.MenuItem {
	if category != "" {
		return s.menu.ByCategory(category)
	}
	return s.menu.All()
}

// Recommended возвращает рекомендованные блюда.
func (s *Service) Recommended() []model.MenuItem {
	return s.menu.Recommended()
}

// Popular возвращает популярные блюда для главной страницы.
func (s *Service) Popular() []model.MenuItem {
	return s.menu.Popular(catalog.PopularLimit)
}

// MenuItem возвращает блюдо по id.
func (s *Service) MenuItem(id string) (model.MenuItem, error) {
	return s.menu.Find(id)
}

// Cart возвращает текущую корзину.
func (s *Service) Cart() CartView {
	items, subtotal, count := s.cart.Snapshot()
	if items == nil {
		items = []model.CartItem{}
	}
	return CartView{
		Items:    items,
		Subtotal: subtotal,
		Count:    count,
	}
}

// AddToCart добавляет блюдо из меню в корзину. Блюда не в наличии не добавляются.
func (s *Service) AddToCart(ctx context.Context, id string) (CartView, error) {
	item, err := s.menu.Orderable(id)
	if err != nil {
		return s.Cart(), err
	}
	s.cart.AddItem(ctx, item.CartItem())
	return s.Cart(), nil
}

// IncreaseQuantity увеличивает количество позиции.
func (s *Service) IncreaseQuantity(ctx context.Context, id string) CartView {
	s.cart.IncreaseQuantity(ctx, id)
	return s.Cart()
}

// DecreaseQuantity уменьшает количество позиции, удаляя её на единице.
func (s *Service) DecreaseQuantity(ctx context.Context, id string) CartView {
	s.cart.DecreaseQuantity(ctx, id)
	return s.Cart()
}

// RemoveFromCart удаляет позицию.
func (s *Service) RemoveFromCart(ctx context.Context, id string) CartView {
	s.cart.RemoveItem(ctx, id)
	return s.Cart()
}

// ClearCart очищает корзину.
func (s *Service) ClearCart(ctx context.Context) CartView {
	s.cart.ClearCart(ctx)
	return s.Cart()
}

// Checkout оформляет корзину как заказ.
// mirror.ErrDeferred вместе с заказом означает, что история будет записана позже.
func (s *Service) Checkout(ctx context.Context) (model.Order, error) {
	order, err := s.cart.CommitOrder(ctx)
	if order == nil {
		if err == nil {
			err = ErrEmptyCart
		}
		return model.Order{}, err
	}
	return *order, err
}

// Orders возвращает историю заказов.
func (s *Service) Orders() []model.Order {
	orders := s.cart.History()
	if orders == nil {
		orders = []model.Order{}
	}
	return orders
}

// Order возвращает заказ из истории по id.
func (s *Service) Order(id string) (model.Order, error) {
	return s.cart.Order(id)
}

// Reorder повторно кладёт позиции заказа в корзину.
func (s *Service) Reorder(ctx context.Context, orderID string) (CartView, error) {
	order, err := s.cart.Order(orderID)
	if err != nil {
		return s.Cart(), err
	}
	s.cart.Reorder(ctx, order)
	return s.Cart(), nil
}

// Reservations возвращает брони.
func (s *Service) Reservations() []model.Reservation {
	list := s.book.List()
	if list == nil {
		list = []model.Reservation{}
	}
	return list
}

// Reserve создаёт бронь. Нулевая дата заменяется текущим временем.
func (s *Service) Reserve(ctx context.Context, date time.Time, guests string) (model.Reservation, error) {
	if date.IsZero() {
		date = s.now()
	}
	return s.book.Create(ctx, date, guests)
}

// CancelReservation отменяет бронь с возможностью вернуть её в течение окна отмены.
func (s *Service) CancelReservation(ctx context.Context, id string) error {
	return s.book.Cancel(ctx, id)
}

// UndoCancel возвращает последнюю отменённую бронь.
func (s *Service) UndoCancel(ctx context.Context) (model.Reservation, error) {
	return s.book.Undo(ctx)
}

// SubmitIssue отправляет обращение в поддержку.
func (s *Service) SubmitIssue(ctx context.Context, subject, message string) (model.Issue, error) {
	return s.desk.Submit(ctx, subject, message)
}

// Issues возвращает отправленные обращения.
func (s *Service) Issues(ctx context.Context) []model.Issue {
	issues := s.desk.List(ctx)
	if issues == nil {
		issues = []model.Issue{}
	}
	return issues
}

// VoiceOrder добавляет в корзину блюда, названные во фразе.
func (s *Service) VoiceOrder(ctx context.Context, speech string, permissionGranted bool) voice.Result {
	return voice.Order(ctx, s.menu, s.cart, speech, permissionGranted)
}

// Dashboard возвращает сводку для владельца бизнеса.
func (s *Service) Dashboard() insights.Dashboard {
	return insights.MockDashboard()
}

// Insight возвращает подсказку по индексу.
func (s *Service) Insight(index int) InsightView {
	next := insights.Next(index)
	return InsightView{
		Index: insights.Next(index - 1),
		Text:  insights.Insight(index),
		Next:  next,
		Total: insights.Count(),
	}
}

// TypeInsight печатает подсказку посимвольно.
func (s *Service) TypeInsight(ctx context.Context, index int) <-chan string {
	return insights.Type(ctx, index, s.typingInterval)
}
