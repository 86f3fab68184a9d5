package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is a middleware that logs each HTTP request as one JSON object per
// line on stdout. Fields:
// - ts (RFC3339Nano)
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - actor_id / actor_role (when the Actor middleware resolved an identity)
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter is Logger writing to an arbitrary writer, timestamps
// rendered in the given location. Used directly in tests.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		// Collect fields after handler executed to capture final status
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		entry := map[string]any{
			"ts":         time.Now().In(loc).Format(time.RFC3339Nano),
			"request_id": rid,
			"method":     c.Method(),
			// Use only the path segment (no query string)
			"path":    c.Path(),
			"status":  c.Response().StatusCode(),
			"latency": float64(time.Since(start).Milliseconds()),
		}
		if actor := ActorFromCtx(c); actor.AccountID != "" {
			entry["actor_id"] = actor.AccountID
			entry["actor_role"] = string(actor.Role)
		}

		_ = enc.Encode(entry)

		return err
	}
}
