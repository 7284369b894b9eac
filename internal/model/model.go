// Package model содержит доменные сущности приложения заказа в ресторане.
package model

import (
	"github.com/shopspring/decimal"
)

// Role описывает уровень доступа пользователя.
type Role string

const (
	RoleUser          Role = "user"
	RoleBusinessOwner Role = "business_owner"
)

// User представляет зарегистрированного пользователя приложения.
type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
}

// CartItem описывает позицию корзины.
type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

// LineTotal возвращает стоимость позиции с учётом количества.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order описывает зафиксированный заказ. После создания не изменяется.
type Order struct {
	ID    string          `json:"id"`
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Date  string          `json:"date"`
}

// Availability описывает наличие блюда в меню.
type Availability string

const (
	AvailabilityInStock    Availability = "In Stock"
	AvailabilityOutOfStock Availability = "Out of Stock"
)

// MenuItem описывает блюдо из каталога.
type MenuItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Rating        float64         `json:"rating"`
	Comments      int             `json:"comments"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Ingredients   []string        `json:"ingredients"`
	Description   string          `json:"description"`
	Availability  Availability    `json:"availability"`
	IsRecommended bool            `json:"isRecommended"`
	IsPopular     bool            `json:"isPopular"`
	Distance      string          `json:"distance,omitempty"`
	Time          string          `json:"time,omitempty"`
}

// CartItem возвращает позицию корзины для блюда с нулевым количеством.
func (m MenuItem) CartItem() CartItem {
	return CartItem{
		ID:    m.ID,
		Name:  m.Name,
		Price: m.Price,
		Image: m.Image,
	}
}

// Reservation описывает бронь столика.
type Reservation struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Guests string `json:"guests"`
}

// Issue описывает обращение в поддержку.
type Issue struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Date    string `json:"date"`
}
