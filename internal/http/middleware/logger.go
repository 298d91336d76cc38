package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"docsign/internal/redact"
)

// Logger logs each HTTP request as one JSON object per line on stdout.
// Fields: ts, level, request_id, method, path, status, latency (ms, float),
// and error when the handler failed. Error messages pass through
// redact.Sanitize so credentials never reach the logs.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter is Logger with an explicit sink and timezone; for tests.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collect fields after the handler ran to capture the final status.
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		level := "info"
		if status >= fiber.StatusInternalServerError {
			level = "error"
		}

		entry := map[string]any{
			"ts":         time.Now().In(loc).Format(time.RFC3339Nano),
			"level":      level,
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Milliseconds()),
		}
		if err != nil {
			entry["error"] = redact.Sanitize(err.Error())
		}
		_ = enc.Encode(entry)

		return err
	}
}
