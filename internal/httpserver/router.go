package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/nocache"
)

const APIPrefix = "/api/users"

type Deps struct {
	AuthHandler    *AuthHTTP
	ProductHandler *ProductHTTP
	// SearchHandler is optional; /search is only mounted when it is set.
	SearchHandler *SearchHTTP
	Gate          *authmw.Gate
	Ready         func(ctx context.Context) error
}

// New builds the echo instance with the shared middleware chain and routes.
func New(d *Deps, logger *slog.Logger, corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	Register(e, d)
	return e
}

// Register mounts the routes. Auth and no-cache middleware are attached per
// route so unknown paths still answer 404 rather than 401.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group(APIPrefix)
	protected := []echo.MiddlewareFunc{nocache.NoCache, d.Gate.RequireAuth}

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.GET("/profile", d.AuthHandler.Profile, protected...)

	api.GET("/products", d.ProductHandler.GetMyProducts, protected...)
	api.POST("/products", d.ProductHandler.CreateProduct, protected...)
	api.GET("/products/:id", d.ProductHandler.GetProduct, nocache.NoCache)
	api.PATCH("/products/:id", d.ProductHandler.PatchProduct, protected...)
	api.DELETE("/products/:id", d.ProductHandler.DeleteProduct, protected...)

	api.GET("/catalog", d.ProductHandler.GetCatalog)
	if d.SearchHandler != nil {
		api.GET("/search", d.SearchHandler.SearchProducts)
	}
}
