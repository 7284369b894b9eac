// Package middleware содержит HTTP middleware сервиса ресторана.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
)

type contextKey string

const userKey contextKey = "user"

// SessionReader отдаёт пользователя текущей сессии.
type SessionReader interface {
	CurrentUser() (model.User, bool)
}

// Guard решает, доступен ли раздел текущему пользователю.
type Guard interface {
	Guard(route navigation.Route) navigation.Decision
}

type deniedResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func deny(w http.ResponseWriter, status int, redirect string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(deniedResponse{
		Error:    http.StatusText(status),
		Redirect: redirect,
	})
}

// RequireSession пропускает запрос только при открытой сессии и кладёт пользователя в контекст.
func RequireSession(session SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := session.CurrentUser()
			if !ok {
				deny(w, http.StatusUnauthorized, "")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole проверяет доступ к разделу route на каждом запросе.
// При отказе отвечает 403 и адресом страницы, на которую нужно уйти.
func RequireRole(guard Guard, route navigation.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Guard(route)
			if !decision.Allowed {
				w.Header().Set("Location", decision.Redirect)
				deny(w, http.StatusForbidden, decision.Redirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext извлекает пользователя, положенного RequireSession.
func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}
