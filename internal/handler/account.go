package handler

import (
	"net/http"

	"github.com/mmeshcher/restaurant-ordering/internal/auth"
	"github.com/mmeshcher/restaurant-ordering/internal/middleware"
	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SignUp регистрирует пользователя и открывает для него сессию.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.service.SignUp(r.Context(), auth.SignUpForm{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if !h.accepted(w, err, "sign up") {
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login открывает сессию по email и паролю.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if !h.accepted(w, err, "login") {
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout закрывает текущую сессию. Повторный вызов не является ошибкой.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.accepted(w, h.service.Logout(r.Context()), "logout") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает пользователя текущей сессии.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.service.CurrentUser()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrNoSession.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GetProfile возвращает профиль пользователя, положенного в контекст middleware.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrNoSession.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateProfile меняет имя, email и телефон. Роль не меняется.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), auth.ProfileForm{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if !h.accepted(w, err, "update profile") {
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type navigationResponse struct {
	Tabs []navigation.Tab `json:"tabs"`
}

// Navigation возвращает вкладки, вычисленные по текущей сессии.
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, navigationResponse{Tabs: h.service.Tabs()})
}
