package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bbn-nutrition/storefront/internal/config"
	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals rounds every amount to cents. Shipping is free from the
// threshold upwards.
func ComputeTotals(shop config.Shop, subtotal decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(decimal.NewFromFloat(shop.TaxRate)).Round(2)
	shipping := decimal.NewFromFloat(shop.ShippingFlat).Round(2)
	if subtotal.GreaterThanOrEqual(decimal.NewFromFloat(shop.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping).Round(2),
	}
}

func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "BBN-" + now.UTC().Format("20060102") + "-" + suffix
}

type OrderService struct {
	Repo   *repo.GormRepo
	Shop   config.Shop
	Events events.Publisher
	Now    func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Checkout turns the requested lines, or the user's cart when none are
// given, into a pending order. Prices come from the catalog at this moment.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.checkout", "user_id", userID)

	lines := req.Items
	fromCart := false
	if len(lines) == 0 {
		cart, err := s.Repo.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, it := range cart {
			lines = append(lines, transport.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		fromCart = true
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: paymentMethod is required", ErrValidation)
	}

	qty := map[uuid.UUID]int{}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, it := range lines {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if _, seen := qty[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}

	items := make([]models.OrderItem, 0, len(ids))
	subtotal := decimal.Zero
	for _, id := range ids {
		p, err := s.Repo.GetProduct(ctx, id)
		if err != nil {
			return nil, notFound(err, "product "+id.String())
		}
		if p.StockQuantity < qty[id] {
			return nil, fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.StockQuantity, p.Name)
		}
		price := decimal.NewFromFloat(p.Price).Round(2)
		line := price.Mul(decimal.NewFromInt(int64(qty[id])))
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     price,
			Quantity:  qty[id],
			LineTotal: line,
		})
		subtotal = subtotal.Add(line)
	}

	totals := ComputeTotals(s.Shop, subtotal)
	now := s.now()
	order := &models.Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          userID,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		ShippingAddress: req.ShippingAddress,
		Notes:           strings.TrimSpace(req.Notes),
		StatusHistory: []models.StatusChange{{
			Status:    models.OrderStatusPending,
			Note:      "order placed",
			ChangedBy: userID.String(),
			At:        now,
		}},
	}

	if err := s.Repo.CreateOrder(ctx, order, fromCart); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: stock changed during checkout", ErrInsufficientStock)
		}
		l.Error("checkout_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("order_created", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.String())
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), "order_created", order)
	return order, nil
}

// Get returns the order when it belongs to userID; admins read any order.
// Foreign orders look missing rather than forbidden.
func (s *OrderService) Get(ctx context.Context, id, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) ListOwn(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, repo.OrderFilter{UserID: &userID, Offset: offset, Limit: limit})
}

func (s *OrderService) List(ctx context.Context, f repo.OrderFilter) (int64, []models.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, f.PaymentStatus)
	}
	return s.Repo.ListOrders(ctx, f)
}

func (s *OrderService) changed(ctx context.Context, typ string, order *models.Order) {
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), typ, order)
}

// Cancel lets a customer cancel their own order while it is still pending
// or confirmed.
func (s *OrderService) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) (bool, error) {
		if o.UserID != userID {
			return false, fmt.Errorf("%w: order", ErrNotFound)
		}
		if o.Status != models.OrderStatusPending && o.Status != models.OrderStatusConfirmed {
			return false, fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidTransition, o.Status)
		}
		o.Status = models.OrderStatusCancelled
		o.StatusHistory = append(o.StatusHistory, models.StatusChange{
			Status:    models.OrderStatusCancelled,
			Note:      "cancelled by customer",
			ChangedBy: userID.String(),
			At:        s.now(),
		})
		return true, nil
	})
	if err != nil {
		return nil, notFound(err, "order")
	}
	s.changed(ctx, "order_cancelled", order)
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest, actor string) (*models.Order, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	order, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) (bool, error) {
		if !CanTransition(o.Status, req.Status) {
			return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, req.Status)
		}
		o.Status = req.Status
		o.StatusHistory = append(o.StatusHistory, models.StatusChange{
			Status:    req.Status,
			Note:      strings.TrimSpace(req.Note),
			ChangedBy: actor,
			At:        s.now(),
		})
		return req.Status == models.OrderStatusCancelled, nil
	})
	if err != nil {
		return nil, notFound(err, "order")
	}
	s.changed(ctx, "order_status_changed", order)
	return order, nil
}

func (s *OrderService) UpdatePayment(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}
	order, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) (bool, error) {
		o.PaymentStatus = status
		return false, nil
	})
	if err != nil {
		return nil, notFound(err, "order")
	}
	s.changed(ctx, "order_payment_changed", order)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order")
	}
	publish(ctx, s.Events, events.TopicOrders, id.String(), "order_deleted", map[string]any{"id": id})
	return nil
}
