// Package handler содержит HTTP-обработчики API сервиса ресторана.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/auth"
	"github.com/mmeshcher/restaurant-ordering/internal/cart"
	"github.com/mmeshcher/restaurant-ordering/internal/catalog"
	"github.com/mmeshcher/restaurant-ordering/internal/insights"
	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
	"github.com/mmeshcher/restaurant-ordering/internal/reservation"
	"github.com/mmeshcher/restaurant-ordering/internal/service"
	"github.com/mmeshcher/restaurant-ordering/internal/validation"
	"github.com/mmeshcher/restaurant-ordering/internal/voice"
)

// PersistenceWarningHeader выставляется, если изменение принято, а запись в хранилище отложена.
const PersistenceWarningHeader = "X-Persistence-Warning"

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	PendingWrites() int

	SignUp(ctx context.Context, form auth.SignUpForm) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	Logout(ctx context.Context) error
	CurrentUser() (model.User, bool)
	UpdateProfile(ctx context.Context, form auth.ProfileForm) (model.User, error)

	Tabs() []navigation.Tab
	Guard(route navigation.Route) navigation.Decision

	Menu(category string) []model.MenuItem
	Recommended() []model.MenuItem
	Popular() []model.MenuItem
	MenuItem(id string) (model.MenuItem, error)

	Cart() service.CartView
	AddToCart(ctx context.Context, id string) (service.CartView, error)
	IncreaseQuantity(ctx context.Context, id string) service.CartView
	DecreaseQuantity(ctx context.Context, id string) service.CartView
	RemoveFromCart(ctx context.Context, id string) service.CartView
	ClearCart(ctx context.Context) service.CartView
	Checkout(ctx context.Context) (model.Order, error)
	Orders() []model.Order
	Order(id string) (model.Order, error)
	Reorder(ctx context.Context, orderID string) (service.CartView, error)

	Reservations() []model.Reservation
	Reserve(ctx context.Context, date time.Time, guests string) (model.Reservation, error)
	CancelReservation(ctx context.Context, id string) error
	UndoCancel(ctx context.Context) (model.Reservation, error)

	SubmitIssue(ctx context.Context, subject, message string) (model.Issue, error)
	Issues(ctx context.Context) []model.Issue

	VoiceOrder(ctx context.Context, speech string, permissionGranted bool) voice.Result

	Dashboard() insights.Dashboard
	Insight(index int) service.InsightView
	TypeInsight(ctx context.Context, index int) <-chan string
}

// Handler реализует HTTP-обработчики API сервиса ресторана.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrRequired),
		errors.Is(err, auth.ErrMalformedUser):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, cart.ErrOrderNotFound),
		errors.Is(err, reservation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, reservation.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrOutOfStock),
		errors.Is(err, validation.ErrInvalidGuests),
		errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// accepted сообщает, можно ли считать операцию выполненной.
// Отложенная запись не блокирует ответ и помечается заголовком.
func (h *Handler) accepted(w http.ResponseWriter, err error, op string) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, mirror.ErrDeferred) && statusFor(err) == http.StatusInternalServerError {
		h.logger.Warn("persistence deferred", zap.String("op", op), zap.Error(err))
		w.Header().Set(PersistenceWarningHeader, "deferred")
		return true
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

type userResponse struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Phone string     `json:"phone"`
	Role  model.Role `json:"role"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name, Phone: u.Phone, Role: u.Role}
}

type healthResponse struct {
	Status        string `json:"status"`
	PendingWrites int    `json:"pendingWrites"`
}

// Health отдаёт число отложенных записей в хранилище.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	pending := h.service.PendingWrites()
	status := "ok"
	if pending > 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, PendingWrites: pending})
}
