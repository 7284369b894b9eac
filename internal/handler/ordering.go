package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// GetMenu возвращает меню, при наличии параметра category только эту категорию.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Menu(r.URL.Query().Get("category")))
}

// GetRecommended возвращает рекомендованные блюда.
func (h *Handler) GetRecommended(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Recommended())
}

// GetPopular возвращает популярные блюда.
func (h *Handler) GetPopular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Popular())
}

// GetMenuItem возвращает карточку блюда.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.MenuItem(chi.URLParam(r, "id"))
	if !h.accepted(w, err, "get menu item") {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// GetCart возвращает корзину.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Cart())
}

type addToCartRequest struct {
	ID string `json:"id"`
}

// AddToCart добавляет блюдо в корзину.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decode(w, r, &req) {
		return
	}

	view, err := h.service.AddToCart(r.Context(), req.ID)
	if !h.accepted(w, err, "add to cart") {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// IncreaseQuantity увеличивает количество позиции.
func (h *Handler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.IncreaseQuantity(r.Context(), chi.URLParam(r, "id")))
}

// DecreaseQuantity уменьшает количество позиции.
func (h *Handler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.DecreaseQuantity(r.Context(), chi.URLParam(r, "id")))
}

// RemoveFromCart удаляет позицию.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.RemoveFromCart(r.Context(), chi.URLParam(r, "id")))
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ClearCart(r.Context()))
}

// Checkout оформляет заказ из корзины.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Checkout(r.Context())
	if !h.accepted(w, err, "checkout") {
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetOrders возвращает историю заказов.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Orders())
}

// GetOrder возвращает заказ из истории.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Order(chi.URLParam(r, "id"))
	if !h.accepted(w, err, "get order") {
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Reorder кладёт позиции заказа обратно в корзину.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Reorder(r.Context(), chi.URLParam(r, "id"))
	if !h.accepted(w, err, "reorder") {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type voiceOrderRequest struct {
	Speech            string `json:"speech"`
	PermissionGranted bool   `json:"permissionGranted"`
}

// VoiceOrder добавляет в корзину блюда из расшифрованной фразы.
func (h *Handler) VoiceOrder(w http.ResponseWriter, r *http.Request) {
	var req voiceOrderRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.VoiceOrder(r.Context(), req.Speech, req.PermissionGranted))
}

type reservationRequest struct {
	Date   string `json:"date"`
	Guests string `json:"guests"`
}

// GetReservations возвращает брони.
func (h *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Reservations())
}

// CreateReservation бронирует столик. Дата передаётся в RFC 3339, пустая означает «сейчас».
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !decode(w, r, &req) {
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be RFC 3339"})
			return
		}
		date = parsed
	}

	res, err := h.service.Reserve(r.Context(), date, req.Guests)
	if !h.accepted(w, err, "create reservation") {
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// CancelReservation отменяет бронь. Отмену можно вернуть через UndoCancel.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	if !h.accepted(w, h.service.CancelReservation(r.Context(), chi.URLParam(r, "id")), "cancel reservation") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UndoCancel возвращает последнюю отменённую бронь.
func (h *Handler) UndoCancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.UndoCancel(r.Context())
	if !h.accepted(w, err, "undo cancel") {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type issueRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// GetIssues возвращает обращения в поддержку.
func (h *Handler) GetIssues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Issues(r.Context()))
}

// SubmitIssue отправляет обращение.
func (h *Handler) SubmitIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decode(w, r, &req) {
		return
	}

	issue, err := h.service.SubmitIssue(r.Context(), req.Subject, req.Message)
	if !h.accepted(w, err, "submit issue") {
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}
