package middleware

import (
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimiter allows max requests per caller within a sliding window. Callers
// are keyed by gateway identity when present, otherwise by IP.
func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max == 0 {
		max = 50
	}
	if expiration == 0 {
		expiration = 1 * time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := IdentityFrom(c); ok {
				return "user:" + id.UserID
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusTooManyRequests,
				Kind:    "rate_limited",
				Message: "too many requests, try again later",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
