package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	ctxUserKey   = "user"
	ctxUserIDKey = "user_id"
)

const (
	MsgNoToken      = "No token, access denied"
	MsgInvalidToken = "Token is invalid"
	MsgUserNotFound = "User not found"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Gate authenticates bearer tokens and attaches the caller's user record
// to the request context.
type Gate struct {
	Tokens TokenVerifier
	Users  UserFinder
}

func NewGate(tokens TokenVerifier, users UserFinder) *Gate {
	return &Gate{Tokens: tokens, Users: users}
}

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_rejected", "status", http.StatusUnauthorized, "reason", "missing bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, MsgNoToken)
		}

		userID, err := g.Tokens.Verify(raw)
		if err != nil {
			l.Warn("auth_rejected", "status", http.StatusUnauthorized, "reason", "invalid token")
			return echo.NewHTTPError(http.StatusUnauthorized, MsgInvalidToken)
		}

		user, err := g.Users.FindUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				l.Warn("auth_rejected", "status", http.StatusUnauthorized, "reason", "user not found", "user_id", userID)
				return echo.NewHTTPError(http.StatusUnauthorized, MsgUserNotFound)
			}
			l.Error("auth_user_lookup_failed", "status", http.StatusInternalServerError, "user_id", userID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Server error").SetInternal(err)
		}

		caller := *user
		caller.Password = ""
		c.Set(ctxUserKey, &caller)
		c.Set(ctxUserIDKey, caller.ID)

		l = logging.FromContext(ctx).With("user_id", user.ID)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))

		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// UserFromContext returns the user attached by RequireAuth.
func UserFromContext(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(ctxUserKey).(*models.User)
	return u, ok && u != nil
}

func UserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(ctxUserIDKey).(string)
	return id, ok && id != ""
}
