package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// errorResponse is the JSON body for every error.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFromCode maps domain error codes to HTTP status codes.
func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNPROCESSABLE:
		return http.StatusUnprocessableEntity
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler converts domain errors into JSON responses. Internal errors
// are logged with their operation and answered with a generic message.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var status int
		var body errorResponse

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			body = errorResponse{Error: http.StatusText(status), Message: he.Error()}
			if msg, ok := he.Message.(string); ok {
				body.Message = msg
			}
		} else {
			code := domain.ErrorCode(err)
			status = statusFromCode(code)
			body = errorResponse{Error: code, Message: domain.ErrorMessage(err)}
		}

		if status >= 500 {
			logger.Error("request failed",
				slog.String("op", domain.ErrorOp(err)),
				slog.Any("error", err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("failed to write error response", slog.Any("error", writeErr))
		}
	}
}
