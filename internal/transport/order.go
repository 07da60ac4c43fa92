package transport

import (
	"github.com/google/uuid"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gte=1"`
}

type CreateOrderRequest struct {
	Items           []CreateOrderItem    `json:"items"           validate:"dive"`
	ShippingAddress models.PostalAddress `json:"shippingAddress"`
	PaymentMethod   string               `json:"paymentMethod"   validate:"required"`
	Notes           string               `json:"notes"           validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
	Note   string             `json:"note"   validate:"max=500"`
}

type UpdatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus" validate:"required"`
}
