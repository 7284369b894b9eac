package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/restaurant-ordering/internal/model"
)

func ids(items []model.MenuItem) []string {
	res := make([]string, 0, len(items))
	for _, it := range items {
		res = append(res, it.ID)
	}
	return res
}

func TestDefaultMenu(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.All(), 8)
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(c.Recommended()))
	assert.Equal(t, []string{"1", "2", "3", "4", "6"}, ids(c.Popular(PopularLimit)))
	assert.Equal(t, []string{"1", "2", "3", "4", "6", "7"}, ids(c.Popular(0)))
	assert.Equal(t, []string{"3", "5"}, ids(c.ByCategory("Mains")))
	assert.Empty(t, c.ByCategory("Sushi"))
}

func TestFindAndOrderable(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	item, err := c.Find("1")
	require.NoError(t, err)
	assert.Equal(t, "Classic Burger", item.Name)
	assert.Equal(t, "500", item.Price.String())

	_, err = c.Find("404")
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = c.Orderable("5")
	require.ErrorIs(t, err, ErrOutOfStock)

	_, err = c.Orderable("2")
	require.NoError(t, err)
}

func TestNew_MissingAvailabilityIsInStock(t *testing.T) {
	c := New([]model.MenuItem{
		{ID: "a", Name: "Soup"},
		{ID: "b", Name: "Stew", Availability: model.AvailabilityOutOfStock},
	})

	item, err := c.Orderable("a")
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityInStock, item.Availability)

	_, err = c.Orderable("b")
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("{"))
	require.Error(t, err)
}

func TestNew_DuplicateIDsKeepFirst(t *testing.T) {
	c := New([]model.MenuItem{{ID: "a", Name: "first"}, {ID: "a", Name: "second"}})

	item, err := c.Find("a")
	require.NoError(t, err)
	assert.Equal(t, "first", item.Name)
}
