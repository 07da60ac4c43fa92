package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/db"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/middleware/csrf"
	loggingmw "github.com/bbn-nutrition/storefront/internal/middleware/logging"
)

type Deps struct {
	DB *gorm.DB

	AuthHandler    *AuthHTTP
	UsersHandler   *UsersHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	AdminHandler   *AdminHTTP

	AuthMW *authmw.Middleware

	UploadDir    string
	CORSOrigins  []string
	CSRFEnabled  bool
	CookieSecure bool
}

// New builds the echo instance with the shared middleware chain and routes.
func New(d *Deps, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-CSRF-Token"},
	}))
	e.Use(middleware.BodyLimit("8M"))
	if d.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:       d.CookieSecure,
			SkipPrefixes: []string{"/api/v1/auth/", "/health/"},
		}))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	requireAuth := d.AuthMW.RequireAuth()
	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, requireAuth)

	me := api.Group("/users/me", requireAuth)
	me.GET("", d.UsersHandler.GetProfile)
	me.PATCH("", d.UsersHandler.UpdateProfile)
	me.POST("/addresses", d.UsersHandler.AddAddress)
	me.DELETE("/addresses/:id", d.UsersHandler.DeleteAddress)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	categories := api.Group("/categories")
	categories.GET("", d.CatalogHandler.GetCategories)
	categories.GET("/:id", d.CatalogHandler.GetCategory)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.DELETE("", d.CartHandler.Clear)
	cart.PUT("/sync", d.CartHandler.Sync)
	cart.PUT("/items/:productId", d.CartHandler.SetQuantity)
	cart.DELETE("/items/:productId", d.CartHandler.RemoveItem)

	orders := api.Group("/orders", requireAuth)
	orders.POST("", d.OrderHandler.Checkout)
	orders.GET("", d.OrderHandler.ListOwn)
	orders.GET("/:id", d.OrderHandler.Get)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel)

	admin := api.Group("/admin", requireAuth, authmw.RequireAdmin)
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
	admin.GET("/ws", d.AdminHandler.Feed)

	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/bulk", d.CatalogHandler.BulkUpdate)
	admin.POST("/products/bulk-delete", d.CatalogHandler.BulkDelete)
	admin.PUT("/products/:id", d.CatalogHandler.ReplaceProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)

	admin.POST("/categories", d.CatalogHandler.CreateCategory)
	admin.PUT("/categories/:id", d.CatalogHandler.UpdateCategory)
	admin.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory)

	admin.POST("/uploads", d.CatalogHandler.UploadImage)

	admin.GET("/orders", d.OrderHandler.AdminList)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.PATCH("/orders/:id/payment", d.OrderHandler.UpdatePayment)
	admin.DELETE("/orders/:id", d.OrderHandler.Delete)

	admin.GET("/users", d.UsersHandler.AdminList)
	admin.PATCH("/users/:id", d.UsersHandler.AdminUpdate)
	admin.DELETE("/users/:id", d.UsersHandler.AdminDelete)
}
