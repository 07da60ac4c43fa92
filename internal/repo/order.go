package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type OrderFilter struct {
	UserID        *uuid.UUID
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	Offset        int
	Limit         int
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	return q
}

func decrementStock(tx *gorm.DB, productID uuid.UUID, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func restoreStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, it := range items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateOrder reserves stock for every line, persists the order and,
// when clearCart is set, empties the owner's cart. Any shortfall rolls
// the whole thing back with ErrInsufficientStock.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, clearCart bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range order.Items {
			if err := decrementStock(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if clearCart {
			return tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{}).Error
		}
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	orders := make([]models.Order, 0, f.Limit)
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).
		Preload("Items").
		Order("created_at DESC").Order("id ASC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// OrderMutation edits an order in place. Returning restock=true puts the
// ordered quantities back on the shelf.
type OrderMutation func(o *models.Order) (restock bool, err error)

// UpdateOrder loads the order, applies mutate and saves the result in
// one transaction.
func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, mutate OrderMutation) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		restock, err := mutate(&order)
		if err != nil {
			return err
		}
		if restock {
			if err := restoreStock(tx, order.Items); err != nil {
				return err
			}
		}
		return tx.Model(&order).Select("status", "payment_status", "status_history", "notes", "updated_at").Updates(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// Revenue sums the totals of paid orders that were not cancelled.
func (r *GormRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total)").
		Where("status <> ? AND payment_status = ?", models.OrderStatusCancelled, models.PaymentStatusPaid).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}

func (r *GormRepo) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
