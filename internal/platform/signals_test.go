package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinstock/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.StockStatus
	}{
		{
			name: "add to cart",
			body: `<button class="cta">Add To Cart</button>`,
			want: models.StatusInStock,
		},
		{
			name: "sold out banner",
			body: `<div class="banner">Sold Out</div>`,
			want: models.StatusOutOfStock,
		},
		{
			name: "out of stock beats disabled cart button",
			body: `<div>Out of Stock</div><button disabled>Add to cart</button>`,
			want: models.StatusOutOfStock,
		},
		{
			name: "currently unavailable beats generic available",
			body: `<span>Currently unavailable at your location</span>`,
			want: models.StatusOutOfStock,
		},
		{
			name: "low stock beats add to cart",
			body: `<span>Only 2 left</span><button>Add to cart</button>`,
			want: models.StatusLowStock,
		},
		{
			name: "hurry marker",
			body: `<span>Hurry! Limited stock</span>`,
			want: models.StatusLowStock,
		},
		{
			name: "case insensitive",
			body: `ADD TO CART`,
			want: models.StatusInStock,
		},
		{
			name: "no signal at all",
			body: `<html><body>loading...</body></html>`,
			want: models.StatusUnknown,
		},
		{
			name: "empty body",
			body: "",
			want: models.StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.body))
		})
	}
}

func TestExtractPrices(t *testing.T) {
	t.Run("json price field", func(t *testing.T) {
		price, oldPrice := extractPrices(`{"price":55,"name":"butter"}`)
		require.NotNil(t, price)
		assert.Equal(t, 55.0, *price)
		assert.Nil(t, oldPrice)
	})

	t.Run("json price with quoted value", func(t *testing.T) {
		price, _ := extractPrices(`{"selling_price":"249.50"}`)
		require.NotNil(t, price)
		assert.Equal(t, 249.50, *price)
	})

	t.Run("price and mrp", func(t *testing.T) {
		price, oldPrice := extractPrices(`{"price":55,"mrp":60}`)
		require.NotNil(t, price)
		require.NotNil(t, oldPrice)
		assert.Equal(t, 55.0, *price)
		assert.Equal(t, 60.0, *oldPrice)
	})

	t.Run("mrp equal to price is dropped", func(t *testing.T) {
		price, oldPrice := extractPrices(`{"price":60,"mrp":60}`)
		require.NotNil(t, price)
		assert.Nil(t, oldPrice)
	})

	t.Run("rupee fallback", func(t *testing.T) {
		price, _ := extractPrices(`<span class="amount">₹ 1,099.00</span>`)
		require.NotNil(t, price)
		assert.Equal(t, 1099.0, *price)
	})

	t.Run("json price wins over rupee text", func(t *testing.T) {
		price, _ := extractPrices(`₹999 {"price":55}`)
		require.NotNil(t, price)
		assert.Equal(t, 55.0, *price)
	})

	t.Run("no price signal", func(t *testing.T) {
		price, oldPrice := extractPrices(`<html>no numbers here</html>`)
		assert.Nil(t, price)
		assert.Nil(t, oldPrice)
	})

	t.Run("zero price is rejected", func(t *testing.T) {
		price, _ := extractPrices(`{"price":0}`)
		assert.Nil(t, price)
	})
}
