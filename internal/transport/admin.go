package transport

import (
	"github.com/shopspring/decimal"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type Dashboard struct {
	TotalProducts  int64                        `json:"totalProducts"`
	TotalUsers     int64                        `json:"totalUsers"`
	TotalOrders    int64                        `json:"totalOrders"`
	Revenue        decimal.Decimal              `json:"revenue"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"ordersByStatus"`
	LowStock       []models.Product             `json:"lowStock"`
	RecentOrders   []models.Order               `json:"recentOrders"`
}
