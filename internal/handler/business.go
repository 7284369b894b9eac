package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/navigation"
)

// GetDashboard отдаёт сводку для владельца бизнеса.
// Маршрут закрыт RequireRole, здесь доступ проверяется повторно.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.allowBusiness(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Dashboard())
}

// GetInsight возвращает подсказку по индексу из query-параметра index.
func (h *Handler) GetInsight(w http.ResponseWriter, r *http.Request) {
	if !h.allowBusiness(w) {
		return
	}
	index, ok := insightIndex(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Insight(index))
}

type typingEvent struct {
	Text string `json:"text"`
}

// StreamInsight печатает подсказку посимвольно в виде server-sent events.
func (h *Handler) StreamInsight(w http.ResponseWriter, r *http.Request) {
	if !h.allowBusiness(w) {
		return
	}
	index, ok := insightIndex(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for text := range h.service.TypeInsight(r.Context(), index) {
		data, err := json.Marshal(typingEvent{Text: text})
		if err != nil {
			h.logger.Error("marshal insight event", zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}

	if r.Context().Err() == nil {
		_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
		flusher.Flush()
	}
}

func (h *Handler) allowBusiness(w http.ResponseWriter) bool {
	decision := h.service.Guard(navigation.RouteBusiness)
	if decision.Allowed {
		return true
	}
	w.Header().Set("Location", decision.Redirect)
	writeJSON(w, http.StatusForbidden, errorResponse{Error: http.StatusText(http.StatusForbidden)})
	return false
}

func insightIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("index")
	if raw == "" {
		return 0, true
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "index must be an integer"})
		return 0, false
	}
	return index, true
}
