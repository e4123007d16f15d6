package cart

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-site/internal/apperr"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tee(qty int) Item {
	return Item{ProductID: "1", Name: "Classic Logo T-Shirt", Price: price("29.99"), Quantity: qty, Size: "M"}
}

func TestAddItemMergesSameLine(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(tee(1)))
	require.NoError(t, c.AddItem(tee(2)))

	assert.Equal(t, 1, c.Len())
	it, ok := c.Get("1-M")
	require.True(t, ok)
	assert.Equal(t, 3, it.Quantity)
	assert.True(t, c.Total().Equal(price("89.97")), c.Total().String())
}

func TestAddItemSizesAreSeparateLines(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(tee(1)))
	large := tee(1)
	large.Size = "L"
	require.NoError(t, c.AddItem(large))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"1-M", "1-L"}, []string{c.Items()[0].ID, c.Items()[1].ID})
}

func TestAddItemRejectsBadQuantity(t *testing.T) {
	c := New()
	err := c.AddItem(tee(0))
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.True(t, c.IsEmpty())
}

func TestAddThenRemoveRestoresState(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(Item{ProductID: "2", Name: "Desert Vibes Hoodie", Price: price("59.99"), Quantity: 1, Size: "L"}))
	before := c.Items()
	beforeTotal := c.Total()

	require.NoError(t, c.AddItem(tee(2)))
	require.NoError(t, c.RemoveItem("1-M"))

	assert.Equal(t, before, c.Items())
	assert.True(t, beforeTotal.Equal(c.Total()))
}

func TestRemoveMissingItem(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(tee(1)))
	err := c.RemoveItem("nope")
	assert.ErrorIs(t, err, ErrItemNotInCart)
	assert.Equal(t, 1, c.Len())
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(tee(1)))
	require.NoError(t, c.UpdateQuantity("1-M", 4))
	assert.True(t, c.Total().Equal(price("119.96")))

	require.NoError(t, c.UpdateQuantity("1-M", 0))
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())

	assert.ErrorIs(t, c.UpdateQuantity("1-M", 2), ErrItemNotInCart)
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(tee(3)))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestJSONRecomputesTotal(t *testing.T) {
	raw := `{"items":[{"id":"1-M","productId":"1","name":"Tee","price":"29.99","quantity":2,"size":"M"}],"total":"1"}`
	var c Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.True(t, c.Total().Equal(price("59.98")))

	out, err := json.Marshal(New())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"total":"0"}`, string(out))
}

// Random operation sequences must keep the total equal to the line sum and
// every quantity positive.
func TestTotalInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prices := []decimal.Decimal{price("29.99"), price("59.99"), price("0.01"), price("10")}
	ids := []string{"1-S", "1-M", "2-L", "3"}

	for run := 0; run < 200; run++ {
		c := New()
		for step := 0; step < 50; step++ {
			i := rng.Intn(len(ids))
			switch rng.Intn(4) {
			case 0, 1:
				_ = c.AddItem(Item{ID: ids[i], ProductID: ids[i], Price: prices[i], Quantity: rng.Intn(5) + 1})
			case 2:
				_ = c.RemoveItem(ids[i])
			case 3:
				_ = c.UpdateQuantity(ids[i], rng.Intn(6)-1)
			}

			sum := decimal.Zero
			for _, it := range c.Items() {
				require.GreaterOrEqual(t, it.Quantity, 1)
				sum = sum.Add(it.LineTotal())
			}
			require.True(t, sum.Equal(c.Total()), "run %d step %d: %s != %s", run, step, sum, c.Total())
		}
	}
}
