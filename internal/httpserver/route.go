package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopcart/internal/db"
	"github.com/Skotchmaster/shopcart/internal/logging"
	loggingmw "github.com/Skotchmaster/shopcart/internal/middleware/logging"
)

type Deps struct {
	DB             *gorm.DB
	CartHandler    *CartHTTP
	CatalogHandler *CatalogHTTP
	AccountHandler *AccountHTTP
}

// NewEcho builds the router with the shared middleware stack and routes.
func NewEcho(logger *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx, d.DB); err != nil {
			logging.FromContext(ctx).Error("readiness_error", "status", 503, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")

	api.POST("/register", d.AccountHandler.Register)
	api.POST("/admin/setup", d.AccountHandler.SetupAdmin)
	api.POST("/admin/login", d.AccountHandler.AdminLogin)
	api.GET("/users", d.AccountHandler.ListUsers)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.ListProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct)
	products.PUT("/:id/stock", d.CatalogHandler.SetStock)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct)

	cart := api.Group("/cart")
	cart.POST("", d.CartHandler.ApplyDelta)
	cart.GET("/:userId", d.CartHandler.GetCart)
	cart.DELETE("/:userId", d.CartHandler.ClearCart)
	cart.DELETE("/:userId/:productId", d.CartHandler.RemoveLine)
}
