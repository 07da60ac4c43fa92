package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/transport"
	"github.com/bbn-nutrition/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc     *service.CatalogService
	Uploads *service.UploadService
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a boolean")
	}
	return &v, nil
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a number")
	}
	return &v, nil
}

func productFilter(c echo.Context) (repo.ProductFilter, error) {
	f := repo.ProductFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Brand:    strings.TrimSpace(c.QueryParam("brand")),
		Tag:      strings.TrimSpace(c.QueryParam("tag")),
		Sort:     c.QueryParam("sort"),
	}
	var err error
	if f.Featured, err = queryBool(c, "featured"); err != nil {
		return f, err
	}
	if f.BestSeller, err = queryBool(c, "bestSeller"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return f, err
	}
	inStock, err := queryBool(c, "inStock")
	if err != nil {
		return f, err
	}
	f.InStock = inStock != nil && *inStock
	return f, nil
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	f, err := productFilter(c)
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "bad filter", "error", err)
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	f.Offset, f.Limit = util.Calculate(page, size)

	total, items, err := h.Svc.ListProducts(ctx, f)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return paged(c, items, util.NewMeta(page, f.Offset, f.Limit, total))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, l, "get_product_error", "id")
	if err != nil {
		return err
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return ok(c, http.StatusOK, product)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_error", err)
	}
	return paged(c, items, util.NewMeta(page, offset, limit, total))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.ProductRequest
	if err := bind(c, l, "product_create_error", &req); err != nil {
		return err
	}
	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return ok(c, http.StatusCreated, product)
}

func (h *CatalogHTTP) ReplaceProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.replace")

	id, err := parseID(c, l, "product_replace_error", "id")
	if err != nil {
		return err
	}
	var req transport.ProductRequest
	if err := bind(c, l, "product_replace_error", &req); err != nil {
		return err
	}
	product, err := h.Svc.ReplaceProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_replace_error", err)
	}
	return ok(c, http.StatusOK, product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := parseID(c, l, "product_patch_error", "id")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := bind(c, l, "product_patch_error", &req); err != nil {
		return err
	}
	product, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	return ok(c, http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, l, "product_delete_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return okMessage(c, http.StatusOK, "product deleted")
}

func (h *CatalogHTTP) BulkUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.bulk_update")

	var req transport.BulkUpdateRequest
	if err := bind(c, l, "bulk_update_error", &req); err != nil {
		return err
	}
	res, err := h.Svc.BulkUpdate(ctx, req.Updates)
	if err != nil {
		return fail(l, "bulk_update_error", err)
	}

	l.Info("bulk_update_success", "updated", len(res.Updated), "failed", len(res.Failed))
	return ok(c, http.StatusOK, res)
}

func (h *CatalogHTTP) BulkDelete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.bulk_delete")

	var req transport.BulkDeleteRequest
	if err := bind(c, l, "bulk_delete_error", &req); err != nil {
		return err
	}
	n, err := h.Svc.BulkDelete(ctx, req.IDs)
	if err != nil {
		return fail(l, "bulk_delete_error", err)
	}
	return ok(c, http.StatusOK, transport.BulkDeleteResult{Deleted: n})
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return ok(c, http.StatusOK, cats)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	id, err := parseID(c, l, "get_category_error", "id")
	if err != nil {
		return err
	}
	cat, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return fail(l, "get_category_error", err)
	}
	return ok(c, http.StatusOK, cat)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CategoryRequest
	if err := bind(c, l, "create_category_error", &req); err != nil {
		return err
	}
	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return fail(l, "create_category_error", err)
	}
	return ok(c, http.StatusCreated, cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c, l, "update_category_error", "id")
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := bind(c, l, "update_category_error", &req); err != nil {
		return err
	}
	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return fail(l, "update_category_error", err)
	}
	return ok(c, http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, l, "delete_category_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_error", err)
	}
	return okMessage(c, http.StatusOK, "category deleted")
}

func (h *CatalogHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.image")

	file, err := c.FormFile("image")
	if err != nil {
		l.Warn("upload_error", "status", 400, "reason", "missing image field", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return fail(l, "upload_error", err)
	}
	defer src.Close()

	res, err := h.Uploads.SaveImage(ctx, file.Filename, file.Size, src)
	if err != nil {
		return fail(l, "upload_error", err)
	}
	return ok(c, http.StatusCreated, res)
}
