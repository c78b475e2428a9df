package apperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Response struct {
	Message string            `json:"message"`
	Code    Code              `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HTTPErrorHandler renders errors returned by handlers as JSON.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolve(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error("write error response", "error", werr)
		}
	}
}

func resolve(err error) (int, Response) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, Response{Message: appErr.Message, Code: appErr.Code, Fields: appErr.Fields}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, Response{Message: msg}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = FormatFieldError(fe)
		}
		return http.StatusBadRequest, Response{Message: "invalid request", Code: CodeValidation, Fields: fields}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, Response{Message: "not found", Code: CodeNotFound}
	}

	return http.StatusInternalServerError, Response{Message: http.StatusText(http.StatusInternalServerError)}
}
