// Package navigation вычисляет доступные разделы приложения по роли текущего пользователя.
package navigation

import (
	"github.com/mmeshcher/restaurant-ordering/internal/auth"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
)

// Route идентифицирует раздел приложения.
type Route string

const (
	RouteHome        Route = "home"
	RouteReservation Route = "reservation"
	RouteProfile     Route = "profile"
	RouteBusiness    Route = "business"
)

// LandingPath задаёт непривилегированную страницу для перенаправления.
const LandingPath = "/"

// Tab описывает вкладку навигации.
type Tab struct {
	Route Route  `json:"route"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

var (
	publicTabs = []Tab{
		{Route: RouteHome, Title: "Home", Path: "/"},
		{Route: RouteReservation, Title: "Reservation", Path: "/reservation"},
		{Route: RouteProfile, Title: "Profile", Path: "/profile"},
	}
	businessTab = Tab{Route: RouteBusiness, Title: "Business", Path: "/business"}
)

// SessionReader отдаёт текущего пользователя.
type SessionReader interface {
	Current() (model.User, bool)
}

// Decision содержит результат проверки доступа к разделу.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// Resolver вычисляет навигацию заново при каждом вызове, ничего не кешируя между сменами сессии.
type Resolver struct {
	session SessionReader
}

// NewResolver создаёт Resolver поверх сессии.
func NewResolver(session SessionReader) *Resolver {
	return &Resolver{session: session}
}

func (r *Resolver) role() model.Role {
	u, ok := r.session.Current()
	if !ok {
		return auth.ResolveRole(nil)
	}
	return auth.ResolveRole(&u)
}

// Tabs возвращает вкладки, видимые текущему пользователю.
func (r *Resolver) Tabs() []Tab {
	tabs := make([]Tab, 0, len(publicTabs)+1)
	tabs = append(tabs, publicTabs...)
	if r.role() == model.RoleBusinessOwner {
		tabs = append(tabs, businessTab)
	}
	return tabs
}

// Guard проверяет доступ к разделу. Раздел business доступен только владельцу бизнеса.
func (r *Resolver) Guard(route Route) Decision {
	if route == RouteBusiness && r.role() != model.RoleBusinessOwner {
		return Decision{Allowed: false, Redirect: LandingPath}
	}
	return Decision{Allowed: true}
}
