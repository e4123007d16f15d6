// Package cart implements the shopping cart kept for each visitor session.
// A Cart is not safe for concurrent use; the session store serialises
// mutations per session.
package cart

import (
	"encoding/json"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/artist-site/internal/apperr"
)

// ErrItemNotInCart is returned when an operation names an item the cart does
// not hold.
var ErrItemNotInCart = apperr.NotFoundf("item not in cart")

// Item is one cart line. Sized products use ItemID so each size is its own
// line.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
}

// LineTotal is price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemID derives the line id for a product and optional size.
func ItemID(productID, size string) string {
	if size == "" {
		return productID
	}
	return productID + "-" + size
}

// Cart holds ordered lines and their running total. Every mutating method
// leaves Total equal to the sum of line totals.
type Cart struct {
	items []Item
	total decimal.Decimal
}

func New() *Cart { return &Cart{} }

// AddItem merges into an existing line with the same id or appends a new one.
func (c *Cart) AddItem(it Item) error {
	if it.ID == "" {
		it.ID = ItemID(it.ProductID, it.Size)
	}
	if it.ID == "" {
		return apperr.Validationf("item id is required")
	}
	if it.Quantity < 1 {
		return apperr.Validationf("quantity must be at least 1")
	}
	if it.Price.IsNegative() {
		return apperr.Validationf("price must not be negative")
	}
	if i := c.index(it.ID); i >= 0 {
		c.items[i].Quantity += it.Quantity
	} else {
		c.items = append(c.items, it)
	}
	c.recompute()
	return nil
}

// RemoveItem drops the line with id.
func (c *Cart) RemoveItem(id string) error {
	i := c.index(id)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.recompute()
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity below one removes
// the line.
func (c *Cart) UpdateQuantity(id string, quantity int) error {
	i := c.index(id)
	if i < 0 {
		return ErrItemNotInCart
	}
	if quantity < 1 {
		return c.RemoveItem(id)
	}
	c.items[i].Quantity = quantity
	c.recompute()
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
	c.total = decimal.Zero
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item { return slices.Clone(c.items) }

// Get returns the line with id.
func (c *Cart) Get(id string) (Item, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

func (c *Cart) Total() decimal.Decimal { return c.total }

// Len is the number of lines; Units is the number of individual items.
func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) Units() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.items, func(it Item) bool { return it.ID == id })
}

func (c *Cart) recompute() {
	t := decimal.Zero
	for _, it := range c.items {
		t = t.Add(it.LineTotal())
	}
	c.total = t
}

type cartJSON struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(cartJSON{Items: items, Total: c.total})
}

// UnmarshalJSON ignores the stored total and recomputes it from the lines.
func (c *Cart) UnmarshalJSON(b []byte) error {
	var v cartJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	c.items = v.Items
	c.recompute()
	return nil
}
