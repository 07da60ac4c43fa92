package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*transport.CartView, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &transport.CartView{Items: make([]models.CartItem, 0, len(items))}
	total := decimal.Zero
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		view.Items = append(view.Items, it)
		view.TotalItems += it.Quantity
		total = total.Add(decimal.NewFromFloat(it.Product.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	view.Total = total.Round(2).InexactFloat64()
	return view, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req transport.AddToCartRequest) (*transport.CartView, error) {
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	p, err := s.Repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}

	inCart := 0
	if existing, err := s.Repo.GetCartItem(ctx, userID, p.ID); err == nil {
		inCart = existing.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if inCart+qty > p.StockQuantity {
		return nil, fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.StockQuantity, p.Name)
	}

	if err := s.Repo.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: qty}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// SetQuantity overwrites the line quantity; zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*transport.CartView, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if qty > p.StockQuantity {
		return nil, fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.StockQuantity, p.Name)
	}
	if err := s.Repo.SetCartQuantity(ctx, userID, productID, qty); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*transport.CartView, error) {
	if err := s.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.ClearCart(ctx, userID)
}

// Sync replaces the stored cart with the client's copy. Unknown or sold
// out products are dropped, duplicates merged and quantities capped at
// the available stock.
func (s *CartService) Sync(ctx context.Context, userID uuid.UUID, items []transport.SyncCartItem) (*transport.CartView, error) {
	merged := map[uuid.UUID]int{}
	order := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if _, seen := merged[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		merged[it.ProductID] += it.Quantity
	}

	lines := make([]models.CartItem, 0, len(order))
	for _, id := range order {
		p, err := s.Repo.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		qty := min(merged[id], p.StockQuantity)
		if qty <= 0 {
			continue
		}
		lines = append(lines, models.CartItem{ProductID: id, Quantity: qty})
	}

	if err := s.Repo.ReplaceCart(ctx, userID, lines); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}
