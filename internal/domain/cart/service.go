package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// Service owns the server side of the cart: it enforces product existence,
// variant and stock rules, and joins stored lines with current prices.
type Service struct {
	lines    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(lines Repository, products product.Repository) *Service {
	return &Service{lines: lines, products: products}
}

// Get returns the user's cart priced at current catalog prices. Lines whose
// product no longer exists are dropped from the result.
func (s *Service) Get(ctx context.Context, userID string) (Cart, error) {
	lines, err := s.lines.Lines(ctx, userID)
	if err != nil {
		return Cart{}, errors.Wrap(err, "list cart lines")
	}
	if len(lines) == 0 {
		return Cart{}, nil
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.Key.ProductID]; ok {
			continue
		}
		seen[l.Key.ProductID] = struct{}{}
		ids = append(ids, l.Key.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return Cart{}, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.Key.ProductID]
		if !ok {
			continue
		}
		items = append(items, Item{
			ProductID:     p.ID,
			Name:          p.Name,
			Size:          l.Key.Size,
			Quantity:      l.Quantity,
			UnitPrice:     p.Price,
			OriginalPrice: p.MRP,
		})
	}
	return Cart{Items: items}, nil
}

// Add increments the line by qty, creating it when absent.
func (s *Service) Add(ctx context.Context, userID string, k Key, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	current, err := s.currentQuantity(ctx, userID, k)
	if err != nil {
		return err
	}
	if err := s.checkProduct(ctx, k, current+qty); err != nil {
		return err
	}
	if _, err := s.lines.Increment(ctx, userID, k, qty); err != nil {
		return errors.Wrapf(err, "increment %s", k)
	}
	return nil
}

// SetQuantity overwrites the quantity of a line. A quantity below 1
// removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID string, k Key, qty int) error {
	if qty < 1 {
		return s.Remove(ctx, userID, k)
	}
	if err := s.checkProduct(ctx, k, qty); err != nil {
		return err
	}
	if err := s.lines.Set(ctx, userID, k, qty); err != nil {
		return errors.Wrapf(err, "set %s", k)
	}
	return nil
}

// Remove deletes a line. It returns ErrLineNotFound when the line is absent.
func (s *Service) Remove(ctx context.Context, userID string, k Key) error {
	return s.lines.Remove(ctx, userID, k)
}

// Clear removes every line of the user's cart in one operation.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.lines.Clear(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func (s *Service) currentQuantity(ctx context.Context, userID string, k Key) (int, error) {
	lines, err := s.lines.Lines(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "list cart lines")
	}
	for _, l := range lines {
		if l.Key == k {
			return l.Quantity, nil
		}
	}
	return 0, nil
}

func (s *Service) checkProduct(ctx context.Context, k Key, want int) error {
	p, err := s.products.GetByID(ctx, k.ProductID)
	if err != nil {
		return err
	}
	if err := p.CheckSize(k.Size); err != nil {
		return err
	}
	if want > p.Stock {
		return &InsufficientStockError{ProductID: p.ID, Available: p.Stock}
	}
	return nil
}
