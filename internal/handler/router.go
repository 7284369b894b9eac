package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/restaurant-ordering/internal/middleware"
	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса ресторана.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/navigation", h.Navigation)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Me)
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(custommiddleware.RequireSession(h.service))
			r.Get("/", h.GetProfile)
			r.Put("/", h.UpdateProfile)
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.GetMenu)
			r.Get("/recommended", h.GetRecommended)
			r.Get("/popular", h.GetPopular)
			r.Get("/items/{id}", h.GetMenuItem)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddToCart)
			r.Post("/items/{id}/increase", h.IncreaseQuantity)
			r.Post("/items/{id}/decrease", h.DecreaseQuantity)
			r.Delete("/items/{id}", h.RemoveFromCart)

			r.With(custommiddleware.RequireSession(h.service)).Post("/checkout", h.Checkout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.GetOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/reorder", h.Reorder)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.GetReservations)
			r.Post("/", h.CreateReservation)
			r.Post("/undo", h.UndoCancel)
			r.Delete("/{id}", h.CancelReservation)
		})

		r.Route("/issues", func(r chi.Router) {
			r.Get("/", h.GetIssues)
			r.Post("/", h.SubmitIssue)
		})

		r.Post("/voice-order", h.VoiceOrder)

		r.Route("/business", func(r chi.Router) {
			r.Use(custommiddleware.RequireRole(h.service, navigation.RouteBusiness))
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/insights", h.GetInsight)
			r.Get("/insights/stream", h.StreamInsight)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
