package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"regportal/internal/apperror"
	"regportal/internal/http/middleware"
	"regportal/internal/logging"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	CurrentStatus     string   `json:"current_status,omitempty"`
	RequestedStatus   string   `json:"requested_status,omitempty"`
	MissingDocuments  []string `json:"missing_documents,omitempty"`
	ArtifactDelivered bool     `json:"artifact_delivered,omitempty"`
	ArtifactURL       string   `json:"artifact_url,omitempty"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	return middleware.RequestIDFrom(c.UserContext())
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeEnvelope(c, status, errorEnvelope{Code: code, Message: message})
}

func writeEnvelope(c *fiber.Ctx, status int, env errorEnvelope) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     env,
	})
}

// statusFor maps an error code to its HTTP status.
func statusFor(code apperror.Code) int {
	switch code {
	case apperror.CodeValidation, apperror.CodeMissingDocuments:
		return fiber.StatusUnprocessableEntity
	case apperror.CodeInvalidTransition, apperror.CodeStaleState:
		return fiber.StatusConflict
	case apperror.CodeNotFound:
		return fiber.StatusNotFound
	case apperror.CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Errors writes service errors. Coded errors keep their message; anything
// else is logged and answered with a generic INTERNAL_ERROR.
type Errors struct {
	logger *slog.Logger
}

func NewErrors(logger *slog.Logger) *Errors {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Errors{logger: logger}
}

func (h *Errors) write(c *fiber.Ctx, err error) error {
	return h.writeWith(c, err, errorEnvelope{})
}

// writeWith lets a caller pre-fill envelope fields such as the artifact URL.
func (h *Errors) writeWith(c *fiber.Ctx, err error, env errorEnvelope) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code == apperror.CodeInternal {
		h.logger.Error("request failed",
			"component", "http",
			"event", "internal_error",
			"request_id", requestIDFromCtx(c),
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		)
		env.Code = string(apperror.CodeInternal)
		env.Message = "internal server error"
		return writeEnvelope(c, fiber.StatusInternalServerError, env)
	}

	env.Code = string(appErr.Code)
	env.Message = appErr.Message
	env.CurrentStatus = string(appErr.Current)
	env.RequestedStatus = string(appErr.Requested)
	env.MissingDocuments = appErr.Missing
	switch appErr.Code {
	case apperror.CodePersistFailure:
		env.ArtifactDelivered = true
		h.logger.Error("artifact delivered without status commit",
			"component", "http",
			"event", "persist_failure",
			"request_id", requestIDFromCtx(c),
			"path", c.Path(),
			"error", err.Error(),
		)
	case apperror.CodeRenderFailure:
		h.logger.Warn("credential render failed",
			"component", "http",
			"event", "render_failure",
			"request_id", requestIDFromCtx(c),
			"path", c.Path(),
			"error", err.Error(),
		)
	}
	return writeEnvelope(c, statusFor(appErr.Code), env)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func (h *Errors) ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if _, ok := apperror.As(err); ok {
			return h.write(c, err)
		}

		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, string(apperror.CodeUnauthorized), "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return h.write(c, err)
		}
	}
}
