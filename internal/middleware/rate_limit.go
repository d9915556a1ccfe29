package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit creates a per-client rate limiter. The login-code endpoint uses
// it to keep one address from flooding mailboxes.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			key := c.IP()
			if userID, ok := UserID(c); ok {
				key = fmt.Sprintf("%d", userID)
			}
			return fmt.Sprintf("%s:%s", identifier, key)
		},
	})
}
