package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docsign/internal/extraction"
	"docsign/internal/inference"
	"docsign/internal/redact"
	"docsign/internal/repository"
	"docsign/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, sigSvc service.SignatureService, settings repository.SettingsRepository) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Post("/documents/:id/extract", ExtractDocument(docSvc))
	app.Post("/documents/:id/summary", SummarizeDocument(docSvc))

	app.Post("/signatures/:id/verify", VerifySignature(sigSvc))
	app.Post("/contracts/:id/signatures/verify", VerifyContractSignatures(sigSvc))
	app.Get("/contracts/:id/signatures/status", ContractSignatureStatus(sigSvc))

	app.Get("/settings", GetSettings(settings))
	app.Put("/settings", UpdateSettings(settings))
}

// HealthCheck reports readiness; it checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments returns paginated documents using limit & offset.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument accepts multipart/form-data with field name "file".
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size)
		if err != nil {
			return mapError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document by ID.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return mapError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ExtractDocument runs the text-extraction cascade and persists the result.
func ExtractDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		res, err := svc.Extract(c.UserContext(), id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(res)
	}
}

// SummarizeDocument generates and persists a summary of the extracted text.
func SummarizeDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		summary, err := svc.Summarize(c.UserContext(), id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(fiber.Map{"summary": summary})
	}
}

// VerifySignature verifies one signature and returns the persisted verdict.
func VerifySignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		verdict, err := svc.VerifySignature(c.UserContext(), id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(verdict)
	}
}

// VerifyContractSignatures verifies every not-yet-verified signature of a contract.
func VerifyContractSignatures(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		batch, err := svc.VerifyAllContractSignatures(c.UserContext(), id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(batch)
	}
}

// ContractSignatureStatus reports verification progress for a contract.
func ContractSignatureStatus(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		status, err := svc.GetContractSignatureStatus(c.UserContext(), id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(status)
	}
}

// GetSettings returns the inference provider settings. The API key is never
// echoed back in full.
func GetSettings(settings repository.SettingsRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey, err := settings.Get(c.UserContext(), repository.SettingOpenAIAPIKey)
		if err != nil {
			return mapError(c, err)
		}
		modelID, err := settings.Get(c.UserContext(), repository.SettingOpenAIModel)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(fiber.Map{
			"api_key": redact.MaskKey(apiKey),
			"model":   modelID,
		})
	}
}

// UpdateSettings stores the inference provider settings. Empty fields keep
// their current value.
func UpdateSettings(settings repository.SettingsRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			APIKey string `json:"api_key"`
			Model  string `json:"model"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if body.APIKey != "" {
			if err := settings.Set(c.UserContext(), repository.SettingOpenAIAPIKey, body.APIKey); err != nil {
				return mapError(c, err)
			}
		}
		if body.Model != "" {
			if err := settings.Set(c.UserContext(), repository.SettingOpenAIModel, body.Model); err != nil {
				return mapError(c, err)
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// pathID validates the :id path parameter as a UUID.
func pathID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	return id, nil
}

// mapError translates service and pipeline sentinels into the error envelope.
// Anything unrecognized collapses to a generic 500 so internals never leak.
func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrSignatureNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "signature not found")
	case errors.Is(err, extraction.ErrFileNotFound):
		return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "document file not found")
	case errors.Is(err, extraction.ErrUnsupportedFormat):
		return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_FORMAT", "only PDF documents are supported")
	case errors.Is(err, inference.ErrConfigurationMissing):
		return writeError(c, fiber.StatusUnprocessableEntity, "CONFIG_MISSING", "inference provider is not configured")
	case errors.Is(err, inference.ErrAuthFailure):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_AUTH_FAILED", "inference provider rejected the credentials")
	case errors.Is(err, inference.ErrRateLimited):
		return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "inference provider rate limit exceeded")
	case errors.Is(err, inference.ErrPayloadTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "document too large for the inference provider")
	case errors.Is(err, service.ErrNoText):
		return writeError(c, fiber.StatusUnprocessableEntity, "NO_EXTRACTED_TEXT", "document has no extractable text")
	case errors.Is(err, extraction.ErrExtractionFailed):
		return writeError(c, fiber.StatusUnprocessableEntity, "EXTRACTION_FAILED", "text extraction failed")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
