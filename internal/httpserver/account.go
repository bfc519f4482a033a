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

type AccountHTTP struct {
	Svc    *service.AccountService
	Events EventPublisher
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var req transport.RegisterRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "register_error", err)
	}

	u, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}

	h.userCreated(c, u)
	return c.JSON(http.StatusCreated, u)
}

func (h *AccountHTTP) SetupAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.setup_admin")

	var req transport.RegisterRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "setup_admin_error", err)
	}

	u, err := h.Svc.SetupAdmin(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "setup_admin_error", err)
	}

	h.userCreated(c, u)
	return c.JSON(http.StatusCreated, u)
}

func (h *AccountHTTP) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.admin_login")

	var req transport.LoginRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(l, "admin_login_error", err)
	}

	res, err := h.Svc.AdminLogin(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "admin_login_error", err)
	}

	l.Info("admin logged in", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		User:        res.User,
	})
}

func (h *AccountHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.list_users")

	users, err := h.Svc.ListCustomers(ctx)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AccountHTTP) userCreated(c echo.Context, u *models.User) {
	publish(c.Request().Context(), h.Events, mykafka.TopicUserEvents, u.ID.String(), "user.created", map[string]any{
		"user_id": u.ID,
		"role":    u.Role,
	})
}
