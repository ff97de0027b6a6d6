package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/handler"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

const msgUnexpected = "Something went wrong"

// ErrorHandler writes the last error a handler recorded with c.Error as
// the JSON error envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		status := apperrors.Status(lastErr)
		message := apperrors.Message(lastErr, msgUnexpected)
		if errors.Is(lastErr, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			message = "Request timeout"
		}

		event := zerolog.Ctx(c.Request.Context()).Warn()
		if status >= 500 {
			event = zerolog.Ctx(c.Request.Context()).Error()
		}
		event.
			Err(lastErr).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", status).
			Msg("Request error")

		resp := handler.NewErrorResponse(message)
		var app *apperrors.AppError
		if errors.As(lastErr, &app) {
			resp.Field = app.Field
		}
		resp.TraceID = c.GetString(ContextRequestID)
		c.JSON(status, resp)
	}
}
