package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	ChangedBy string      `json:"changedBy,omitempty"`
	At        time.Time   `json:"at"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"primaryKey"                   json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null"         json:"orderNumber"`
	UserID          uuid.UUID       `gorm:"index;not null"               json:"userId"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"           json:"items"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"tax"`
	Shipping        decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"shipping"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"total"`
	Status          OrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null"    json:"paymentStatus"`
	PaymentMethod   string          `                                    json:"paymentMethod"`
	ShippingAddress PostalAddress   `gorm:"type:text;serializer:json"    json:"shippingAddress"`
	Notes           string          `                                    json:"notes,omitempty"`
	StatusHistory   []StatusChange  `gorm:"type:text;serializer:json"    json:"statusHistory"`
	CreatedAt       time.Time       `gorm:"index"                        json:"createdAt"`
	UpdatedAt       time.Time       `                                    json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID   uuid.UUID       `gorm:"index;not null"              json:"orderId"`
	ProductID uuid.UUID       `gorm:"index;not null"              json:"productId"`
	Name      string          `gorm:"not null"                    json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null"                    json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"lineTotal"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model for migrations.
func All() []any {
	return []any{
		&Product{},
		&Category{},
		&User{},
		&Address{},
		&RefreshToken{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
