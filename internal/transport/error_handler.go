package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/observability"
	"go.uber.org/zap"
)

// ErrorHandler renders every unhandled error as {success:false, error}.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		reqLogger := observability.WithContextLogger(logger, c.UserContext())
		if code >= fiber.StatusInternalServerError {
			reqLogger.Error("request error", fields...)
		} else {
			reqLogger.Warn("request error", fields...)
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
