// Package voice реализует заказ голосом поверх готовой расшифровки речи.
// Распознавание не выполняется: на вход приходит строка, в ней ищутся названия блюд.
package voice

import (
	"context"
	"strings"

	"github.com/mmeshcher/restaurant-ordering/internal/model"
)

// Status описывает состояние экрана голосового заказа.
type Status string

const (
	StatusIdle         Status = "Tap to speak"
	StatusListening    Status = "Listening..."
	StatusProcessing   Status = "Processing your order..."
	StatusCompleted    Status = "Order added to cart!"
	StatusError        Status = "Sorry, I didn't understand that"
	StatusNoPermission Status = "Microphone permission is required"
)

// Menu отдаёт блюда для сопоставления.
type Menu interface {
	All() []model.MenuItem
}

// Cart принимает найденные блюда.
type Cart interface {
	AddItem(ctx context.Context, item model.CartItem)
}

// Result описывает итог обработки фразы.
type Result struct {
	Status  Status           `json:"status"`
	Speech  string           `json:"speech,omitempty"`
	Matched []model.MenuItem `json:"matched"`
}

// Parse возвращает блюда, чьё название целиком входит в фразу без учёта регистра.
func Parse(menu Menu, speech string) []model.MenuItem {
	text := strings.ToLower(speech)

	matched := make([]model.MenuItem, 0)
	for _, item := range menu.All() {
		name := strings.ToLower(item.Name)
		if name != "" && strings.Contains(text, name) {
			matched = append(matched, item)
		}
	}
	return matched
}

// Order разбирает фразу и добавляет каждое найденное блюдо в корзину один раз.
func Order(ctx context.Context, menu Menu, cart Cart, speech string, permissionGranted bool) Result {
	if !permissionGranted {
		return Result{Status: StatusNoPermission, Matched: []model.MenuItem{}}
	}

	matched := Parse(menu, speech)
	if len(matched) == 0 {
		return Result{Status: StatusError, Speech: speech, Matched: matched}
	}

	for _, item := range matched {
		cart.AddItem(ctx, item.CartItem())
	}

	return Result{Status: StatusCompleted, Speech: speech, Matched: matched}
}
