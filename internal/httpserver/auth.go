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
)

const (
	msgAlreadyExists      = "Already existing user"
	msgRegistered         = "User registered successfully"
	msgInvalidIdentifiers = "Invalid identifiers"
	msgTooManyAttempts    = "Too many login attempts"
	msgUserNotFound       = "User not found"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			l.Warn("register_error", "status", 400, "reason", "email already used")
			return echo.NewHTTPError(http.StatusBadRequest, msgAlreadyExists)
		case errors.Is(err, domain.ErrValidation):
			l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, domain.ValidationMessage(err))
		default:
			l.Error("register_error", "status", 500, "reason", "cannot register user", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
		}
	}

	return c.JSON(http.StatusCreated, transport.AuthResponse{
		ID:      res.User.ID,
		Name:    res.User.Name,
		Email:   res.User.Email,
		Token:   res.Token,
		Message: msgRegistered,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidIdentifiers)
		case errors.Is(err, domain.ErrTooManyAttempts):
			l.Warn("login_error", "status", 429, "reason", "throttled")
			return echo.NewHTTPError(http.StatusTooManyRequests, msgTooManyAttempts)
		default:
			l.Error("login_error", "status", 500, "reason", "cannot login", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
		}
	}

	return c.JSON(http.StatusOK, transport.AuthResponse{
		ID:    res.User.ID,
		Name:  res.User.Name,
		Email: res.User.Email,
		Token: res.Token,
	})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.profile")

	userID, ok := authmw.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoToken)
	}

	user, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("profile_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, msgUserNotFound)
		}
		l.Error("profile_error", "status", 500, "reason", "cannot load user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgServerError).SetInternal(err)
	}

	return c.JSON(http.StatusOK, user)
}
