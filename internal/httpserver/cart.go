package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
	"github.com/Skotchmaster/shopcart/internal/service"
	"github.com/Skotchmaster/shopcart/internal/transport"
)

type CartHTTP struct {
	Svc    *service.CartService
	Events EventPublisher
}

func (h *CartHTTP) ApplyDelta(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.apply_delta")

	var req transport.CartDeltaRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "apply_delta_error", err)
	}

	res, err := h.Svc.ApplyDelta(ctx, req.UserID, req.ProductID, *req.QuantityChange)
	if err != nil {
		return fail(l, "apply_delta_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicCartEvents, req.UserID.String(), "cart.line_"+string(res.Outcome), map[string]any{
		"user_id":         req.UserID,
		"product_id":      req.ProductID,
		"quantity_change": *req.QuantityChange,
	})

	out := transport.CartDeltaResponse{Outcome: string(res.Outcome)}
	switch res.Outcome {
	case service.OutcomeCreated:
		out.Item = res.Line
		l.Info("cart line created", "user_id", req.UserID, "product_id", req.ProductID)
		return c.JSON(http.StatusCreated, out)
	case service.OutcomeRemoved:
		out.RemovedQuantity = res.RemovedQuantity
	default:
		out.Item = res.Line
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return fail(l, "get_cart_error", err)
	}

	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}

	n, err := h.Svc.ClearCart(ctx, userID)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicCartEvents, userID.String(), "cart.cleared", map[string]any{
		"user_id": userID,
		"removed": n,
	})
	l.Info("cart cleared", "user_id", userID, "removed", n)
	return c.JSON(http.StatusOK, transport.ClearCartResponse{Removed: n})
}

func (h *CartHTTP) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_line")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return fail(l, "remove_line_error", err)
	}
	productID, err := uuidParam(c, "productId")
	if err != nil {
		return fail(l, "remove_line_error", err)
	}

	qty, err := h.Svc.RemoveLine(ctx, userID, productID)
	if err != nil {
		return fail(l, "remove_line_error", err)
	}

	publish(ctx, h.Events, mykafka.TopicCartEvents, userID.String(), "cart.line_removed", map[string]any{
		"user_id":          userID,
		"product_id":       productID,
		"removed_quantity": qty,
	})
	return c.JSON(http.StatusOK, transport.RemoveLineResponse{ProductID: productID, RemovedQuantity: qty})
}
