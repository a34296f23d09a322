package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

func item(id string, price int64) model.MenuItem {
	return model.MenuItem{ID: id, Name: "item " + id, Price: price, Category: model.CategoryRegular, Available: true}
}

func TestAdd_SameItemIncrementsQuantity(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		c := New()
		for i := 0; i < n; i++ {
			c.Add(item("a", 8000))
		}

		require.Equal(t, 1, c.Len())
		assert.Equal(t, n, c.Items()[0].Quantity)
	}
}

func TestSetQuantity_NeverBelowOne(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{"decrement from one", 1, -1, 1},
		{"large negative", 3, -100, 1},
		{"increment", 2, 1, 3},
		{"large positive", 1, 10, 11},
		{"zero delta", 4, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for i := 0; i < tt.start; i++ {
				c.Add(item("a", 1000))
			}

			c.SetQuantity("a", tt.delta)
			assert.Equal(t, tt.want, c.Items()[0].Quantity)
		})
	}
}

func TestSetQuantity_AbsentIsNoop(t *testing.T) {
	c := New()
	c.SetQuantity("missing", 3)
	assert.Equal(t, 0, c.Len())
}

func TestTotal(t *testing.T) {
	c := New()
	c.Add(item("a", 8000))
	c.Add(item("a", 8000))
	c.Add(item("b", 12000))

	assert.Equal(t, int64(28000), c.Total())
	assert.Equal(t, 3, c.Count())
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.Add(item("a", 1000))
	c.Add(item("b", 2000))
	c.Add(item("c", 3000))

	c.Remove("b")
	c.Remove("missing")

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[1].ID)
	assert.Equal(t, int64(4000), c.Total())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Total())
	assert.Empty(t, c.Items())
}

func TestSubtract_KeepsItemsAddedAfterSnapshot(t *testing.T) {
	c := New()
	c.Add(item("a", 1000))
	c.Add(item("a", 1000))
	c.Add(item("b", 2000))
	ordered := c.Items()

	c.Add(item("a", 1000))
	c.Add(item("c", 3000))
	c.Remove("b")

	c.Subtract(ordered)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "c", items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)

	c.Subtract(c.Items())
	assert.Equal(t, 0, c.Len())
}
