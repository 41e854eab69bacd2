package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const msgServerError = "Server error"

// ErrorHandler renders every failure as {"message": "..."}. Errors that are
// not *echo.HTTPError are reported as 500 without exposing their text.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := msgServerError

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(code)
		default:
			msg = fmt.Sprint(m)
		}
	}

	var rerr error
	if c.Request().Method == http.MethodHead {
		rerr = c.NoContent(code)
	} else {
		rerr = c.JSON(code, transport.MessageResponse{Message: msg})
	}
	if rerr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", rerr)
	}
}
