package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/observability"
)

// requestIDLocalsKey is where fiber's requestid middleware stores the id.
const requestIDLocalsKey = "requestid"

// RequestContext copies the request id into the user context so services
// can log it. It must run after the requestid middleware.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if requestID := RequestID(c); requestID != "" {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), requestID))
		}
		return c.Next()
	}
}

func RequestID(c *fiber.Ctx) string {
	if value, ok := c.Locals(requestIDLocalsKey).(string); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
}
