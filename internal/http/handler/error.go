package handler

import (
	"github.com/gofiber/fiber/v2"

	"docsign/internal/http/middleware"
)

// errorPayload is the error response body shared by every endpoint.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts the request_id stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes the standard JSON error envelope. message must be safe for
// clients; internal error details stay in the server logs.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// statusCodes maps framework-level statuses to stable machine-readable codes.
var statusCodes = map[int]errorEnvelope{
	fiber.StatusBadRequest:       {Code: "BAD_REQUEST", Message: "bad request"},
	fiber.StatusNotFound:         {Code: "NOT_FOUND", Message: "resource not found"},
	fiber.StatusMethodNotAllowed: {Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"},
}

// ErrorHandler is the Fiber global error handler. It catches errors that
// escape the handlers (routing errors, panics converted by Recover) and
// renders them in the standard envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		env, ok := statusCodes[status]
		if !ok {
			env = errorEnvelope{Code: "INTERNAL_ERROR", Message: "internal server error"}
		}
		return writeError(c, status, env.Code, env.Message)
	}
}
