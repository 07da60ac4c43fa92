package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/transport"
	"github.com/bbn-nutrition/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req transport.CreateOrderRequest
	if err := bind(c, l, "checkout_error", &req); err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	order, err := h.Svc.Checkout(ctx, id.UserID, req)
	if err != nil {
		return fail(l, "checkout_error", err)
	}
	return ok(c, http.StatusCreated, order)
}

func (h *OrderHTTP) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_own")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	id, _ := authmw.IdentityFrom(c)
	total, orders, err := h.Svc.ListOwn(ctx, id.UserID, offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return paged(c, orders, util.NewMeta(page, offset, limit, total))
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	orderID, err := parseID(c, l, "get_order_error", "id")
	if err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	order, err := h.Svc.Get(ctx, orderID, id.UserID, id.IsAdmin())
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return ok(c, http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	orderID, err := parseID(c, l, "cancel_order_error", "id")
	if err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	order, err := h.Svc.Cancel(ctx, orderID, id.UserID)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}
	l.Info("cancel_order_success", "order_id", orderID)
	return ok(c, http.StatusOK, order)
}

func (h *OrderHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.List(ctx, repo.OrderFilter{
		Status:        models.OrderStatus(c.QueryParam("status")),
		PaymentStatus: models.PaymentStatus(c.QueryParam("paymentStatus")),
		Offset:        offset,
		Limit:         limit,
	})
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return paged(c, orders, util.NewMeta(page, offset, limit, total))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order_status")

	orderID, err := parseID(c, l, "update_status_error", "id")
	if err != nil {
		return err
	}
	var req transport.UpdateStatusRequest
	if err := bind(c, l, "update_status_error", &req); err != nil {
		return err
	}

	actor, _ := authmw.IdentityFrom(c)
	order, err := h.Svc.UpdateStatus(ctx, orderID, req, actor.UserID.String())
	if err != nil {
		return fail(l, "update_status_error", err)
	}
	l.Info("update_status_success", "order_id", orderID, "status", order.Status)
	return ok(c, http.StatusOK, order)
}

func (h *OrderHTTP) UpdatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order_payment")

	orderID, err := parseID(c, l, "update_payment_error", "id")
	if err != nil {
		return err
	}
	var req transport.UpdatePaymentRequest
	if err := bind(c, l, "update_payment_error", &req); err != nil {
		return err
	}

	order, err := h.Svc.UpdatePayment(ctx, orderID, req.PaymentStatus)
	if err != nil {
		return fail(l, "update_payment_error", err)
	}
	return ok(c, http.StatusOK, order)
}

func (h *OrderHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	orderID, err := parseID(c, l, "delete_order_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, orderID); err != nil {
		return fail(l, "delete_order_error", err)
	}
	return okMessage(c, http.StatusOK, "order deleted")
}
