package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/catalog"
	"github.com/evergreen-commerce/evergreen-backend/internal/users"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrOutOfStock      = errors.New("product out of stock")
)

// ProductSource provides catalog reads for pricing and stock checks.
type ProductSource interface {
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
	GetCategory(ctx context.Context, categoryID string) (*catalog.Category, error)
}

// UserSource checks that the cart owner exists.
type UserSource interface {
	Get(ctx context.Context, userID string) (*users.User, error)
}

// CartStore persists cart documents.
type CartStore interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Put(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID string) error
}

// Service implements the cart mutations. Every mutation reprices the
// touched line through the pricing engine and re-derives the cart
// totals before persisting.
type Service struct {
	carts    CartStore
	products ProductSource
	userSrc  UserSource
	pricing  *catalog.Engine
}

// NewService wires a cart Service.
func NewService(carts CartStore, products ProductSource, userSrc UserSource, pricing *catalog.Engine) *Service {
	return &Service{
		carts:    carts,
		products: products,
		userSrc:  userSrc,
		pricing:  pricing,
	}
}

// Get returns the user's cart, creating an empty one on first view.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	u, err := s.userSrc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	c = &Cart{UserID: userID}
	c.recompute()
	if err := s.carts.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Add puts one unit of the product into the cart, or bumps an existing
// line by half a unit. New lines start at quantity 1.
func (s *Service) Add(ctx context.Context, userID, productID string) (*Cart, error) {
	u, err := s.userSrc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if p.Stock.IsZero() {
		return nil, ErrOutOfStock
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Cart{UserID: userID}
	}

	qty := decimal.NewFromInt(1)
	i := c.Find(productID)
	if i >= 0 {
		qty = c.Items[i].Quantity.Add(QuantityStep)
		if qty.GreaterThan(p.Stock) {
			return nil, ErrOutOfStock
		}
	}

	line, err := s.priceLine(ctx, p, qty)
	if err != nil {
		return nil, err
	}
	if i >= 0 {
		c.Items[i] = line
	} else {
		c.Items = append(c.Items, line)
	}
	c.recompute()

	if err := s.carts.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity sets a line's quantity and reprices it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, qty decimal.Decimal) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if qty.GreaterThan(p.Stock) {
		return nil, ErrOutOfStock
	}

	line, err := s.priceLine(ctx, p, qty)
	if err != nil {
		return nil, err
	}
	c.Items[i] = line
	c.recompute()

	if err := s.carts.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes a line from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.recompute()

	if err := s.carts.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) priceLine(ctx context.Context, p *catalog.Product, qty decimal.Decimal) (Item, error) {
	var cat *catalog.Category
	if p.CategoryID != "" {
		var err error
		cat, err = s.products.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return Item{}, err
		}
	}
	quote := s.pricing.Price(*p, cat)
	return Item{
		ProductID: p.ProductID,
		Name:      p.Name,
		ListPrice: quote.ListPrice,
		UnitPrice: quote.BestPrice,
		Quantity:  qty,
		ItemTotal: quote.BestPrice.Mul(qty),
	}, nil
}
