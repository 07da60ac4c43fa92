package transport

import (
	"github.com/google/uuid"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gte=0"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type SyncCartItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gte=1"`
}

type SyncCartRequest struct {
	Items []SyncCartItem `json:"items" validate:"dive"`
}

type CartView struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	Total      float64           `json:"total"`
}
