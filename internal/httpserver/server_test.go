package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbn-nutrition/storefront/internal/config"
	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/hash"
	"github.com/bbn-nutrition/storefront/internal/logging"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/testutil"
	"github.com/bbn-nutrition/storefront/internal/tokens"
)

type testServer struct {
	e         *echo.Echo
	repo      *repo.GormRepo
	events    *events.Recorder
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	rec := &events.Recorder{}
	issuer := &tokens.Issuer{AccessSecret: []byte("access-secret"), RefreshSecret: []byte("refresh-secret")}
	shop := config.DefaultShop()
	uploadDir := filepath.Join(t.TempDir(), "uploads")

	authSvc := &service.AuthService{Repo: r, Issuer: issuer, Events: rec}
	d := &Deps{
		DB:             gdb,
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		UsersHandler:   &UsersHTTP{Svc: &service.UserService{Repo: r, Events: rec}},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: rec}, Uploads: &service.UploadService{Dir: uploadDir}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &OrderHTTP{Svc: &service.OrderService{Repo: r, Shop: shop, Events: rec}},
		AdminHandler:   &AdminHTTP{Svc: &service.AdminService{Repo: r, Shop: shop}},
		AuthMW:         &authmw.Middleware{AccessSecret: issuer.AccessSecret, Auth: authSvc},
		UploadDir:      uploadDir,
	}
	return &testServer{
		e:         New(d, logging.NewWithWriter(io.Discard, "error")),
		repo:      r,
		events:    rec,
		uploadDir: uploadDir,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Meta    *struct {
		Page       int   `json:"page"`
		Size       int   `json:"size"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"totalPages"`
		HasNext    bool  `json:"hasNext"`
	} `json:"meta"`
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (s *testServer) account(t *testing.T, email, role string) string {
	t.Helper()
	pw, err := hash.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, s.repo.CreateUserIfNotExists(context.Background(), &models.User{Name: role, Email: email, PasswordHash: pw, Role: role}))

	rec, env := s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]any](t, env.Data)["token"].(string)
}

func (s *testServer) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Category: "Whey", StockQuantity: stock}
	require.NoError(t, s.repo.CreateProduct(context.Background(), p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.call(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.call(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Ana", "email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "validation")

	rec, env = s.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Ana", "email": "Ana@Shop.io", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	user := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ana@shop.io", user["email"])
	assert.NotContains(t, user, "passwordHash")

	rec, _ = s.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Ana", "email": "ana@shop.io", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@shop.io", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@shop.io", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[map[string]any](t, env.Data)
	token := login["token"].(string)
	refresh := login["refreshToken"].(string)

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, token, cookies[tokens.AccessCookie])
	assert.Equal(t, refresh, cookies[tokens.RefreshCookie])

	rec, env = s.call(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@shop.io", decode[map[string]any](t, env.Data)["email"])

	rec, _ = s.call(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.call(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	newRefresh := decode[map[string]any](t, env.Data)["refreshToken"].(string)

	rec, _ = s.call(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.call(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"refreshToken": newRefresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logged out", env.Message)

	rec, _ = s.call(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": newRefresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileAndAddresses(t *testing.T) {
	s := newTestServer(t)
	token := s.account(t, "p@shop.io", models.RoleUser)

	rec, env := s.call(t, http.MethodPatch, "/api/v1/users/me", token, map[string]string{"name": "Paula"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Paula", decode[map[string]any](t, env.Data)["name"])

	rec, _ = s.call(t, http.MethodPost, "/api/v1/users/me/addresses", token, map[string]any{"fullName": "Paula"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.call(t, http.MethodPost, "/api/v1/users/me/addresses", token, map[string]any{
		"label": "home", "fullName": "Paula", "phone": "1", "street": "s", "city": "c", "country": "US",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	addr := decode[map[string]any](t, env.Data)
	assert.Equal(t, true, addr["isDefault"])

	rec, env = s.call(t, http.MethodDelete, "/api/v1/users/me/addresses/"+addr["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "address deleted", env.Message)
	rec, _ = s.call(t, http.MethodDelete, "/api/v1/users/me/addresses/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.product(t, "Whey A", 30, 4)
	s.product(t, "Whey B", 50, 0)
	s.product(t, "Whey C", 70, 9)

	rec, env := s.call(t, http.MethodGet, "/api/v1/products?size=2&sort=price_desc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]map[string]any](t, env.Data)
	require.Len(t, items, 2)
	assert.Equal(t, "Whey C", items[0]["name"])
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 3, env.Meta.Total)
	assert.EqualValues(t, 2, env.Meta.TotalPages)
	assert.True(t, env.Meta.HasNext)

	rec, env = s.call(t, http.MethodGet, "/api/v1/products?inStock=true&maxPrice=60", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/products?featured=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.call(t, http.MethodGet, "/api/v1/products/search?q=whey", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, env.Meta.Total)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/products/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.call(t, http.MethodGet, "/api/v1/products/00000000-0000-0000-0000-000000000001", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminProducts(t *testing.T) {
	s := newTestServer(t)
	user := s.account(t, "u@shop.io", models.RoleUser)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)

	body := map[string]any{"name": "Mass Gainer", "price": 45.5, "category": "Mass Gainer", "stockQuantity": 3}

	rec, _ := s.call(t, http.MethodPost, "/api/v1/admin/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.call(t, http.MethodPost, "/api/v1/admin/products", user, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.call(t, http.MethodPost, "/api/v1/admin/products", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]any](t, env.Data)["id"].(string)

	rec, _ = s.call(t, http.MethodPost, "/api/v1/admin/products", admin, map[string]any{"name": "x", "price": -1, "category": "c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.call(t, http.MethodPatch, "/api/v1/admin/products/"+id, admin, map[string]any{"featured": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["featured"])

	rec, env = s.call(t, http.MethodPatch, "/api/v1/admin/products/bulk", admin, map[string]any{
		"updates": []map[string]any{
			{"id": id, "fields": map[string]any{"price": 40}},
			{"id": "00000000-0000-0000-0000-000000000009", "fields": map[string]any{"price": 1}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bulk := decode[map[string][]any](t, env.Data)
	assert.Len(t, bulk["updated"], 1)
	assert.Len(t, bulk["failed"], 1)

	rec, env = s.call(t, http.MethodPost, "/api/v1/admin/categories", admin, map[string]any{"name": "Mass Gainer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	catID := decode[map[string]any](t, env.Data)["id"].(string)

	rec, _ = s.call(t, http.MethodDelete, "/api/v1/admin/categories/"+catID, admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.call(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]map[string]any](t, env.Data)
	require.Len(t, cats, 1)
	assert.EqualValues(t, 1, cats[0]["productCount"])

	rec, env = s.call(t, http.MethodPost, "/api/v1/admin/products/bulk-delete", admin, map[string]any{"ids": []string{id}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Data)["deleted"])

	rec, env = s.call(t, http.MethodDelete, "/api/v1/admin/categories/"+catID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "category deleted", env.Message)

	assert.Contains(t, s.events.Types(events.TopicProducts), "product_created")
}

func TestAdminBulkUpdateReportsBadEntries(t *testing.T) {
	s := newTestServer(t)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)
	good := s.product(t, "Good", 10, 1)
	bad := s.product(t, "Bad", 10, 1)

	rec, env := s.call(t, http.MethodPatch, "/api/v1/admin/products/bulk", admin, map[string]any{
		"updates": []map[string]any{
			{"id": good.ID, "fields": map[string]any{"price": 40}},
			{"id": bad.ID, "fields": map[string]any{"price": -1}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[struct {
		Updated []string `json:"updated"`
		Failed  []struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"failed"`
	}](t, env.Data)
	assert.Equal(t, []string{good.ID.String()}, res.Updated)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, bad.ID.String(), res.Failed[0].ID)
	assert.Contains(t, res.Failed[0].Reason, "price")

	got, err := s.repo.GetProduct(context.Background(), good.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40, got.Price, 1e-9)
	got, err = s.repo.GetProduct(context.Background(), bad.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, got.Price, 1e-9)
}

func TestRenamedCategoryKeepsItsProducts(t *testing.T) {
	s := newTestServer(t)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)
	p := s.product(t, "Iso", 30, 2)

	rec, env := s.call(t, http.MethodPost, "/api/v1/admin/categories", admin, map[string]any{"name": "Whey"})
	require.Equal(t, http.StatusCreated, rec.Code)
	catID := decode[map[string]any](t, env.Data)["id"].(string)

	rec, env = s.call(t, http.MethodPut, "/api/v1/admin/categories/"+catID, admin, map[string]any{"name": "Whey Protein"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Data)["productCount"])

	rec, env = s.call(t, http.MethodGet, "/api/v1/products/"+p.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Whey Protein", decode[map[string]any](t, env.Data)["category"])

	rec, _ = s.call(t, http.MethodDelete, "/api/v1/admin/categories/"+catID, admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminUpload(t *testing.T) {
	s := newTestServer(t)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "tub.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+admin)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	up := decode[map[string]any](t, env.Data)
	url := up["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))

	_, err = os.Stat(filepath.Join(s.uploadDir, up["filename"].(string)))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

var shipping = map[string]any{
	"fullName": "Ana", "phone": "1", "street": "Main 1", "city": "Town", "country": "US",
}

func TestCartCheckoutAndOrders(t *testing.T) {
	s := newTestServer(t)
	user := s.account(t, "buyer@shop.io", models.RoleUser)
	other := s.account(t, "other@shop.io", models.RoleUser)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)
	p := s.product(t, "Whey", 20, 5)

	rec, env := s.call(t, http.MethodPost, "/api/v1/cart", user, map[string]any{"productId": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decode[map[string]any](t, env.Data)
	assert.EqualValues(t, 40, cart["total"])

	rec, _ = s.call(t, http.MethodPost, "/api/v1/cart", user, map[string]any{"productId": p.ID, "quantity": 10})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.call(t, http.MethodPut, "/api/v1/cart/items/"+p.ID.String(), user, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode[map[string]any](t, env.Data)["totalItems"])

	rec, _ = s.call(t, http.MethodPost, "/api/v1/orders", user, map[string]any{"paymentMethod": "card"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.call(t, http.MethodPost, "/api/v1/orders", user, map[string]any{"paymentMethod": "card", "shippingAddress": shipping})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[map[string]any](t, env.Data)
	orderID := order["id"].(string)
	assert.Equal(t, "pending", order["status"])
	assert.EqualValues(t, 60, order["subtotal"])
	assert.EqualValues(t, 6.6, order["tax"])
	assert.EqualValues(t, 5, order["shipping"])
	assert.EqualValues(t, 71.6, order["total"])
	assert.Regexp(t, `^BBN-\d{8}-[0-9A-F]{6}$`, order["orderNumber"])

	rec, env = s.call(t, http.MethodGet, "/api/v1/cart", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string]any](t, env.Data)["items"])

	rec, env = s.call(t, http.MethodGet, "/api/v1/orders", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta.Total)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/orders/"+orderID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.call(t, http.MethodGet, "/api/v1/orders/"+orderID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.call(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", admin, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = s.call(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", admin, map[string]any{"status": "confirmed", "note": "ok"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.call(t, http.MethodGet, "/api/v1/admin/orders?status=confirmed", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta.Total)

	rec, env = s.call(t, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode[map[string]any](t, env.Data)["status"])

	rec, env = s.call(t, http.MethodGet, "/api/v1/products/"+p.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, decode[map[string]any](t, env.Data)["stockQuantity"])

	rec, _ = s.call(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/payment", admin, map[string]any{"paymentStatus": "refunded"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.call(t, http.MethodGet, "/api/v1/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[map[string]any](t, env.Data)
	assert.EqualValues(t, 1, dash["totalOrders"])
	assert.EqualValues(t, 0, dash["revenue"])

	rec, env = s.call(t, http.MethodDelete, "/api/v1/admin/orders/"+orderID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "order deleted", env.Message)

	assert.Equal(t, []string{"order_created", "order_status_changed", "order_cancelled", "order_payment_changed", "order_deleted"}, s.events.Types(events.TopicOrders))
}

func TestCartSyncAndClear(t *testing.T) {
	s := newTestServer(t)
	user := s.account(t, "sync@shop.io", models.RoleUser)
	p := s.product(t, "Bar", 2.5, 10)

	rec, env := s.call(t, http.MethodPut, "/api/v1/cart/sync", user, map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 4}, {"productId": "00000000-0000-0000-0000-000000000042", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 10, decode[map[string]any](t, env.Data)["total"])

	rec, _ = s.call(t, http.MethodDelete, "/api/v1/cart/items/"+p.ID.String(), user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.call(t, http.MethodDelete, "/api/v1/cart/items/"+p.ID.String(), user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, env = s.call(t, http.MethodDelete, "/api/v1/cart", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "cart cleared", env.Message)
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "u@shop.io", models.RoleUser)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)

	rec, env := s.call(t, http.MethodGet, "/api/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]map[string]any](t, env.Data)
	require.Len(t, users, 2)

	ids := map[string]string{}
	for _, u := range users {
		ids[u["email"].(string)] = u["id"].(string)
	}

	rec, env = s.call(t, http.MethodPatch, "/api/v1/admin/users/"+ids["u@shop.io"], admin, map[string]any{"emailVerified": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["emailVerified"])

	rec, _ = s.call(t, http.MethodPatch, "/api/v1/admin/users/"+ids["u@shop.io"], admin, map[string]any{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.call(t, http.MethodDelete, "/api/v1/admin/users/"+ids["a@shop.io"], admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, env = s.call(t, http.MethodDelete, "/api/v1/admin/users/"+ids["u@shop.io"], admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "user deleted", env.Message)
}

func TestAdminFeedDisabled(t *testing.T) {
	s := newTestServer(t)
	admin := s.account(t, "a@shop.io", models.RoleAdmin)
	rec, _ := s.call(t, http.MethodGet, "/api/v1/admin/ws", admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
