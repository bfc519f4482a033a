package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
	"github.com/Skotchmaster/shopcart/internal/service"
	"github.com/Skotchmaster/shopcart/internal/transport"
)

type CatalogHTTP struct {
	Svc    *service.CatalogService
	Events EventPublisher
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.list")

	products, err := h.Svc.ListProducts(ctx)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	products, total, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Items: products})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "get_product_error", err)
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.create")

	var req transport.CreateProductRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "create_product_error", err)
	}

	p := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Image:       req.Image,
		Category:    req.Category,
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}

	if err := h.Svc.CreateProduct(ctx, p); err != nil {
		return fail(l, "create_product_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicProductEvents, p.ID.String(), "product.created", p)
	l.Info("product created", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.patch")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "patch_product_error", err)
	}
	var req transport.PatchProductRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "patch_product_error", err)
	}

	p, err := h.Svc.PatchProduct(ctx, id, service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		return fail(l, "patch_product_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicProductEvents, p.ID.String(), "product.updated", p)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) SetStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.set_stock")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "set_stock_error", err)
	}
	var req transport.SetStockRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "set_stock_error", err)
	}

	p, err := h.Svc.SetStock(ctx, id, *req.Stock)
	if err != nil {
		return fail(l, "set_stock_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicProductEvents, p.ID.String(), "product.stock_set", map[string]any{
		"product_id": p.ID,
		"stock":      p.Stock,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "delete_product_error", err)
	}

	lines, err := h.Svc.DeleteProduct(ctx, id)
	if err != nil {
		return fail(l, "delete_product_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicProductEvents, id.String(), "product.deleted", map[string]any{
		"product_id":         id,
		"removed_cart_lines": lines,
	})
	l.Info("product deleted", "product_id", id, "removed_cart_lines", lines)
	return c.JSON(http.StatusOK, transport.DeleteProductResponse{ID: id, RemovedCartLines: lines})
}
