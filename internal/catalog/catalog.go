// Package catalog reads merchandise and moves stock into carts.
package catalog

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/cart"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/repository"
)

// ProductStore is the persistence the catalog needs.
type ProductStore interface {
	List(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id string) (model.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
	IncrementStock(ctx context.Context, id string, qty int) error
	SetStock(ctx context.Context, id string, stock int) error
}

// Invalidator drops cached catalog responses after a stock change.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	products ProductStore
	cache    Invalidator
	log      *zap.Logger
}

// NewService accepts a nil cache when response caching is disabled.
func NewService(products ProductStore, cache Invalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{products: products, cache: cache, log: log}
}

// FetchProducts returns the full product list.
func (s *Service) FetchProducts(ctx context.Context) ([]model.Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		if isNetwork(err) {
			return nil, apperr.Upstreamf(err, "product store unreachable")
		}
		return nil, apperr.Upstreamf(err, "failed to load products")
	}
	return ps, nil
}

// AddToCart validates the request against current stock, takes the units
// out of stock atomically and only then adds the line to c. On any error c
// is left unchanged.
func (s *Service) AddToCart(ctx context.Context, c *cart.Cart, productID string, qty int, size string) (cart.Item, error) {
	if qty < 1 {
		return cart.Item{}, apperr.Validationf("quantity must be at least 1")
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		return cart.Item{}, err
	}
	switch {
	case p.HasSizes() && size == "":
		return cart.Item{}, apperr.Validationf("please select a size")
	case p.HasSizes() && !p.OffersSize(size):
		return cart.Item{}, apperr.Validationf("size %s is not available", size)
	case !p.HasSizes() && size != "":
		return cart.Item{}, apperr.Validationf("this product has no sizes")
	}
	if qty > p.Stock {
		return cart.Item{}, apperr.Validationf("only %d left in stock", p.Stock)
	}

	if _, err := s.decrement(ctx, p.ID, qty); err != nil {
		return cart.Item{}, err
	}

	item := cart.Item{
		ID:        cart.ItemID(p.ID, size),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Image:     p.Image,
		Size:      size,
	}
	if err := c.AddItem(item); err != nil {
		s.restore(ctx, p.ID, qty)
		return cart.Item{}, err
	}
	return item, nil
}

// ReleaseFromCart removes qty units of line id from c and returns them to
// stock. qty <= 0 or qty >= the line quantity releases the whole line.
func (s *Service) ReleaseFromCart(ctx context.Context, c *cart.Cart, id string, qty int) error {
	it, ok := c.Get(id)
	if !ok {
		return cart.ErrItemNotInCart
	}
	if qty <= 0 || qty >= it.Quantity {
		qty = it.Quantity
	}
	if err := c.UpdateQuantity(id, it.Quantity-qty); err != nil {
		return err
	}
	s.restore(ctx, it.ProductID, qty)
	return nil
}

// SetLineQuantity moves a cart line to quantity, taking or returning the
// difference from stock.
func (s *Service) SetLineQuantity(ctx context.Context, c *cart.Cart, id string, quantity int) error {
	it, ok := c.Get(id)
	if !ok {
		return cart.ErrItemNotInCart
	}
	delta := quantity - it.Quantity
	switch {
	case delta == 0:
		return nil
	case delta < 0:
		return s.ReleaseFromCart(ctx, c, id, -delta)
	}
	if _, err := s.decrement(ctx, it.ProductID, delta); err != nil {
		return err
	}
	if err := c.UpdateQuantity(id, quantity); err != nil {
		s.restore(ctx, it.ProductID, delta)
		return err
	}
	return nil
}

// DecrementStock takes qty units out of stock and returns what is left.
func (s *Service) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	if qty < 1 {
		return 0, apperr.Validationf("quantity must be at least 1")
	}
	return s.decrement(ctx, productID, qty)
}

// SetStock overwrites a product's stock count.
func (s *Service) SetStock(ctx context.Context, productID string, stock int) error {
	if stock < 0 {
		return apperr.Validationf("stock must not be negative")
	}
	if err := s.products.SetStock(ctx, productID, stock); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFoundf("Product not found")
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) product(ctx context.Context, id string) (model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return p, apperr.NotFoundf("Product not found")
	}
	if err != nil {
		return p, apperr.Upstreamf(err, "failed to load product")
	}
	return p, nil
}

func (s *Service) decrement(ctx context.Context, id string, qty int) (int, error) {
	left, err := s.products.DecrementStock(ctx, id, qty)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return 0, apperr.NotFoundf("Product not found")
	case errors.Is(err, repository.ErrInsufficientStock):
		return 0, apperr.Conflictf("not enough stock")
	case err != nil:
		return 0, err
	}
	s.invalidate(ctx)
	return left, nil
}

func (s *Service) restore(ctx context.Context, id string, qty int) {
	if err := s.products.IncrementStock(ctx, id, qty); err != nil {
		s.log.Error("restore stock failed", zap.String("product_id", id), zap.Int("qty", qty), zap.Error(err))
		return
	}
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func isNetwork(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) || errors.Is(err, driver.ErrBadConn)
}
