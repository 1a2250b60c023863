package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Middleware records request duration and count per matched route.
func Middleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		m.RecordHTTPRequest(route, c.Method(), status, time.Since(start).Seconds())
		return err
	}
}
