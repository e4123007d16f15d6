package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Product mirrors the products table. Sizes is empty for products sold
// without variants.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes,omitempty"`
}

// HasSizes reports whether the product requires a size selection.
func (p Product) HasSizes() bool { return len(p.Sizes) > 0 }

// OffersSize reports whether size is one of the product's variants.
func (p Product) OffersSize(size string) bool { return slices.Contains(p.Sizes, size) }
