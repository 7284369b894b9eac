// Package insights отдаёт демонстрационную аналитику для владельца бизнеса.
// Все цифры и подсказки зафиксированы заранее.
package insights

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTypingInterval задаёт паузу между символами при печати подсказки.
const DefaultTypingInterval = 30 * time.Millisecond

// Period содержит показатель за день, неделю и месяц и его рост в процентах.
type Period struct {
	Today     decimal.Decimal `json:"today"`
	ThisWeek  decimal.Decimal `json:"thisWeek"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
	Growth    decimal.Decimal `json:"growth"`
}

// PopularItem описывает популярное блюдо.
type PopularItem struct {
	Name    string          `json:"name"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Dashboard содержит сводку для экрана бизнеса.
type Dashboard struct {
	Revenue   Period        `json:"revenue"`
	Orders    Period        `json:"orders"`
	Customers Period        `json:"customers"`
	Popular   []PopularItem `json:"popular"`
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MockDashboard возвращает фиксированную сводку.
func MockDashboard() Dashboard {
	return Dashboard{
		Revenue:   Period{Today: dec("1245.50"), ThisWeek: dec("7890.25"), ThisMonth: dec("32450.75"), Growth: dec("12.5")},
		Orders:    Period{Today: dec("42"), ThisWeek: dec("287"), ThisMonth: dec("1243"), Growth: dec("8.3")},
		Customers: Period{Today: dec("38"), ThisWeek: dec("245"), ThisMonth: dec("980"), Growth: dec("15.2")},
		Popular: []PopularItem{
			{Name: "Grilled Salmon", Orders: 156, Revenue: dec("2808")},
			{Name: "Caesar Salad", Orders: 124, Revenue: dec("1488")},
			{Name: "Beef Wellington", Orders: 98, Revenue: dec("2450")},
			{Name: "Pasta Carbonara", Orders: 87, Revenue: dec("1218")},
		},
	}
}

var messages = []string{
	"Your dinner service is seeing a 15% increase in orders compared to last month.",
	"Consider promoting your Caesar Salad more as it has high margins and is popular.",
	"Tuesday evenings have slower sales - consider running a promotion.",
	"Your average order value has increased by 8% since introducing new premium items.",
	"Customer retention has improved - 65% of customers from last month returned this month.",
}

// Count возвращает число подсказок.
func Count() int {
	return len(messages)
}

// Insight возвращает подсказку по индексу; индекс берётся по модулю числа подсказок.
func Insight(index int) string {
	return messages[wrap(index)]
}

// Next возвращает индекс следующей подсказки.
func Next(index int) int {
	return wrap(index + 1)
}

func wrap(i int) int {
	n := len(messages)
	return ((i % n) + n) % n
}

// Type печатает подсказку посимвольно: в канал уходит текст, набранный к очередному тику.
// Канал закрывается после последнего символа или при отмене ctx.
func Type(ctx context.Context, index int, interval time.Duration) <-chan string {
	if interval <= 0 {
		interval = DefaultTypingInterval
	}

	text := []rune(Insight(index))
	out := make(chan string)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for n := 1; n <= len(text); n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			select {
			case <-ctx.Done():
				return
			case out <- string(text[:n]):
			}
		}
	}()

	return out
}
