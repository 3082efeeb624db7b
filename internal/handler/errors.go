package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/logging"
)

const internalErrorMessage = "Internal Server Error"

// NewHTTPErrorHandler answers every error that reached Echo without a
// response.  Echo's own HTTP errors (404, 405, ...) keep their status; any
// other error is logged in full and reported to the client as a bare 500.
func NewHTTPErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()

		status := http.StatusInternalServerError
		message := internalErrorMessage
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
				message = m
			}
		}
		if status >= http.StatusInternalServerError {
			log.Error(ctx, "request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"err", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"error": message})
		}
		if err != nil {
			log.Error(ctx, "write error response failed", "err", err)
		}
	}
}
