package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/transport"
	"github.com/bbn-nutrition/storefront/internal/util"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func (h *UsersHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get_profile")

	id, _ := authmw.IdentityFrom(c)
	user, err := h.Svc.Profile(ctx, id.UserID)
	if err != nil {
		return fail(l, "get_profile_error", err)
	}
	return ok(c, http.StatusOK, user)
}

func (h *UsersHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_profile")

	var req transport.UpdateProfileRequest
	if err := bind(c, l, "update_profile_error", &req); err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	user, err := h.Svc.UpdateProfile(ctx, id.UserID, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}
	return ok(c, http.StatusOK, user)
}

func (h *UsersHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.add_address")

	var req transport.AddressRequest
	if err := bind(c, l, "add_address_error", &req); err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	addr, err := h.Svc.AddAddress(ctx, id.UserID, req)
	if err != nil {
		return fail(l, "add_address_error", err)
	}
	return ok(c, http.StatusCreated, addr)
}

func (h *UsersHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete_address")

	addrID, err := parseID(c, l, "delete_address_error", "id")
	if err != nil {
		return err
	}

	id, _ := authmw.IdentityFrom(c)
	if err := h.Svc.DeleteAddress(ctx, id.UserID, addrID); err != nil {
		return fail(l, "delete_address_error", err)
	}
	return okMessage(c, http.StatusOK, "address deleted")
}

func (h *UsersHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, users, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return paged(c, users, util.NewMeta(page, offset, limit, total))
}

func (h *UsersHTTP) AdminUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_user")

	userID, err := parseID(c, l, "update_user_error", "id")
	if err != nil {
		return err
	}
	var req transport.AdminUserPatch
	if err := bind(c, l, "update_user_error", &req); err != nil {
		return err
	}

	actor, _ := authmw.IdentityFrom(c)
	user, err := h.Svc.AdminUpdate(ctx, actor.UserID, userID, req)
	if err != nil {
		return fail(l, "update_user_error", err)
	}
	l.Info("update_user_success", "user_id", userID, "actor", actor.UserID)
	return ok(c, http.StatusOK, user)
}

func (h *UsersHTTP) AdminDelete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	userID, err := parseID(c, l, "delete_user_error", "id")
	if err != nil {
		return err
	}

	actor, _ := authmw.IdentityFrom(c)
	if err := h.Svc.Delete(ctx, actor.UserID, userID); err != nil {
		return fail(l, "delete_user_error", err)
	}
	l.Info("delete_user_success", "user_id", userID, "actor", actor.UserID)
	return okMessage(c, http.StatusOK, "user deleted")
}
