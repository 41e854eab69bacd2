package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

const (
	msgNoUser           = "Unauthorized: No user found"
	msgProductAdded     = "Product added successfully"
	msgProductUpdated   = "Product updated successfully"
	msgProductDeleted   = "Product deleted successfully"
	msgProductNotFound  = "Product not found"
	msgNotOwnerOnUpdate = "User not authorized to update this product"
	msgNotOwnerOnDelete = "User not authorized to delete this product"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func (h *ProductHTTP) GetMyProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_my_products")

	userID, ok := authmw.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, msgNoUser)
	}

	items, err := h.Svc.ListByOwner(ctx, userID)
	if err != nil {
		l.Error("get_my_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
	}

	return c.JSON(http.StatusOK, items)
}

// GetProduct is public. An unknown id yields 200 with a null body.
func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	product, err := h.Svc.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusOK, nil)
		}
		l.Error("get_product_error", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) GetCatalog(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_catalog")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	page = util.PageOf(offset, limit)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		l.Error("get_catalog_error", "status", 500, "reason", "cannot list products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
	}

	return c.JSON(http.StatusOK, transport.CatalogResponse{
		Data: items,
		Meta: transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: util.TotalPages(total, limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	user, ok := authmw.UserFromContext(c)
	if !ok {
		l.Warn("product_create_error", "status", 401, "reason", "no user in context")
		return echo.NewHTTPError(http.StatusUnauthorized, msgNoUser)
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.Create(ctx, user.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			l.Warn("product_create_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, domain.ValidationMessage(err))
		case errors.Is(err, domain.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, msgNoUser)
		default:
			l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
		}
	}

	l.Info("product_create_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, transport.ProductResponse{Message: msgProductAdded, Product: prod})
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	userID, ok := authmw.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, msgNoUser)
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id := c.Param("id")
	prod, err := h.Svc.Update(ctx, userID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			l.Warn("product_patch_error", "status", 404, "reason", "product not found", "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, msgProductNotFound)
		case errors.Is(err, domain.ErrForbidden):
			l.Warn("product_patch_error", "status", 403, "reason", "not owner", "product_id", id)
			return echo.NewHTTPError(http.StatusForbidden, msgNotOwnerOnUpdate)
		case errors.Is(err, domain.ErrValidation):
			l.Warn("product_patch_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, domain.ValidationMessage(err))
		default:
			l.Error("product_patch_error", "status", 500, "reason", "cannot update product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
		}
	}

	l.Info("product_patch_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, transport.ProductResponse{Message: msgProductUpdated, Product: prod})
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	userID, ok := authmw.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, msgNoUser)
	}

	id := c.Param("id")
	if err := h.Svc.Delete(ctx, userID, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			l.Warn("product_delete_error", "status", 404, "reason", "product not found", "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, msgProductNotFound)
		case errors.Is(err, domain.ErrForbidden):
			l.Warn("product_delete_error", "status", 403, "reason", "not owner", "product_id", id)
			return echo.NewHTTPError(http.StatusForbidden, msgNotOwnerOnDelete)
		default:
			l.Error("product_delete_error", "status", 500, "reason", "cannot delete product from db", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
		}
	}

	l.Info("product_delete_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msgProductDeleted})
}
