package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id, _ := authmw.IdentityFrom(c)
	view, err := h.Svc.GetCart(ctx, id.UserID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddToCartRequest
	if err := bind(c, l, "add_to_cart_error", &req); err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	view, err := h.Svc.AddItem(ctx, id.UserID, req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	productID, err := parseID(c, l, "set_quantity_error", "productId")
	if err != nil {
		return err
	}
	var req transport.SetQuantityRequest
	if err := bind(c, l, "set_quantity_error", &req); err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	view, err := h.Svc.SetQuantity(ctx, id.UserID, productID, req.Quantity)
	if err != nil {
		return fail(l, "set_quantity_error", err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	productID, err := parseID(c, l, "remove_item_error", "productId")
	if err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	view, err := h.Svc.RemoveItem(ctx, id.UserID, productID)
	if err != nil {
		return fail(l, "remove_item_error", err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	id, _ := authmw.IdentityFrom(c)
	if err := h.Svc.Clear(ctx, id.UserID); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return okMessage(c, http.StatusOK, "cart cleared")
}

func (h *CartHTTP) Sync(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.sync")

	var req transport.SyncCartRequest
	if err := bind(c, l, "sync_cart_error", &req); err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	view, err := h.Svc.Sync(ctx, id.UserID, req.Items)
	if err != nil {
		return fail(l, "sync_cart_error", err)
	}
	return ok(c, http.StatusOK, view)
}
