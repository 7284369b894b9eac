// Package catalog содержит меню ресторана и выборки по нему.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/mmeshcher/restaurant-ordering/internal/model"
)

//go:embed data/menu.json
var defaultMenu []byte

// PopularLimit ограничивает число популярных блюд на главном экране.
const PopularLimit = 5

var (
	// ErrItemNotFound возвращается, если блюда нет в меню.
	ErrItemNotFound = errors.New("menu item not found")
	// ErrOutOfStock возвращается при попытке заказать блюдо, которого нет в наличии.
	ErrOutOfStock = errors.New("menu item is out of stock")
)

// Catalog хранит неизменяемый список блюд.
type Catalog struct {
	items []model.MenuItem
	byID  map[string]int
}

// New создаёт каталог из списка блюд. При повторе id побеждает первое блюдо.
// Блюдо без указанного наличия считается имеющимся в наличии.
func New(items []model.MenuItem) *Catalog {
	c := &Catalog{
		items: slices.Clone(items),
		byID:  make(map[string]int, len(items)),
	}
	for i, it := range c.items {
		if it.Availability == "" {
			c.items[i].Availability = model.AvailabilityInStock
		}
		if _, dup := c.byID[it.ID]; !dup {
			c.byID[it.ID] = i
		}
	}
	return c
}

// Parse разбирает меню из JSON.
func Parse(data []byte) (*Catalog, error) {
	var items []model.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return New(items), nil
}

// Default возвращает встроенное меню.
func Default() (*Catalog, error) {
	return Parse(defaultMenu)
}

// All возвращает все блюда в исходном порядке.
func (c *Catalog) All() []model.MenuItem {
	return slices.Clone(c.items)
}

// Find возвращает блюдо по id.
func (c *Catalog) Find(id string) (model.MenuItem, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.MenuItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return c.items[i], nil
}

// Orderable возвращает блюдо, если его можно добавить в корзину.
func (c *Catalog) Orderable(id string) (model.MenuItem, error) {
	item, err := c.Find(id)
	if err != nil {
		return model.MenuItem{}, err
	}
	if item.Availability == model.AvailabilityOutOfStock {
		return model.MenuItem{}, fmt.Errorf("%w: %s", ErrOutOfStock, item.Name)
	}
	return item, nil
}

// Recommended возвращает рекомендованные блюда.
func (c *Catalog) Recommended() []model.MenuItem {
	return c.filter(func(m model.MenuItem) bool { return m.IsRecommended }, 0)
}

// Popular возвращает не больше limit популярных блюд; limit <= 0 снимает ограничение.
func (c *Catalog) Popular(limit int) []model.MenuItem {
	return c.filter(func(m model.MenuItem) bool { return m.IsPopular }, limit)
}

// ByCategory возвращает блюда категории.
func (c *Catalog) ByCategory(category string) []model.MenuItem {
	return c.filter(func(m model.MenuItem) bool { return m.Category == category }, 0)
}

func (c *Catalog) filter(keep func(model.MenuItem) bool, limit int) []model.MenuItem {
	res := make([]model.MenuItem, 0)
	for _, m := range c.items {
		if limit > 0 && len(res) == limit {
			break
		}
		if keep(m) {
			res = append(res, m)
		}
	}
	return res
}
