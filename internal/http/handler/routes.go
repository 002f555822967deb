package handler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regportal/internal/http/middleware"
	"regportal/internal/model"
	"regportal/internal/service"
)

// Pinger is the database health dependency. A nil Pinger reports healthy.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies are the collaborators RegisterRoutes wires into handlers.
type Dependencies struct {
	DB            Pinger
	Registrations service.RegistrationService
	Issuance      service.IssuanceService
	Verifier      middleware.TokenVerifier
	Gatherer      prometheus.Gatherer
	Errors        *Errors
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Pipeline
// routes sit behind bearer-token authentication.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	errs := d.Errors
	if errs == nil {
		errs = NewErrors(nil)
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", Metrics(d.Gatherer))
	}

	auth := middleware.Authenticate(d.Verifier)
	app.Get("/required-documents", auth, ListRequiredDocuments(d.Registrations))
	app.Post("/requests", auth, SubmitRequest(d.Registrations))
	app.Get("/requests", auth, ListRequests(d.Registrations))
	app.Get("/requests/:id", auth, GetRequest(d.Registrations))
	app.Get("/requests/:id/missing-documents", auth, MissingDocuments(d.Registrations))
	app.Put("/requests/:id/documents/:type", auth, AttachDocument(d.Registrations))
	app.Get("/requests/:id/documents/:type", auth, OpenDocument(d.Registrations))
	app.Post("/requests/:id/review", auth, ReviewRequest(d.Registrations))
	app.Post("/requests/:id/credential", auth, GenerateCredential(d.Issuance, errs))
	app.Post("/requests/:id/print", auth, PrintCredential(d.Issuance, errs))
	app.Post("/requests/:id/collection", auth, RecordCollection(d.Registrations))
	app.Post("/credentials/generate-batch", auth, GenerateBatch(d.Issuance))
	app.Post("/credentials/print-batch", auth, PrintBatch(d.Issuance))
}

// HealthCheck checks DB connectivity only.
// @Summary Readiness probe
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.JSON(fiber.Map{"status": "healthy"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is the backward-compatible simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

func Metrics(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func actorOf(c *fiber.Ctx) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, fiber.ErrUnauthorized
	}
	return a, nil
}

// ListRequiredDocuments returns the current document checklist.
// @Summary List required document types
// @Security BearerAuth
// @Success 200 {array} model.RequiredDocumentType
// @Router /required-documents [get]
func ListRequiredDocuments(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := svc.RequiredDocuments(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(types)
	}
}

// SubmitRequest creates a pending registration request.
// @Summary Submit a registration request
// @Security BearerAuth
// @Accept json
// @Param body body service.SubmitInput true "request"
// @Success 201 {object} model.RegistrationRequest
// @Failure 422 {object} errorPayload
// @Router /requests [post]
func SubmitRequest(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var in service.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		req, err := svc.Submit(c.UserContext(), actor, in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

// ListRequests lists requests with limit & offset and an optional status filter.
// @Summary List registration requests
// @Security BearerAuth
// @Param status query string false "status filter"
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.RegistrationListResult
// @Router /requests [get]
func ListRequests(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.List(c.UserContext(), actor, service.ListInput{
			Status: c.Query("status"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func GetRequest(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		req, err := svc.Get(c.UserContext(), actor, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(requestView{RegistrationRequest: req, Badge: req.Status.Badge()})
	}
}

type requestView struct {
	*model.RegistrationRequest
	Badge model.Badge `json:"badge"`
}

func MissingDocuments(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		missing, err := svc.MissingDocuments(c.UserContext(), actor, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"request_id": c.Params("id"), "missing_documents": missing})
	}
}

// AttachDocument uploads one document (multipart/form-data, field name: file).
// @Summary Attach a document to a request
// @Security BearerAuth
// @Accept multipart/form-data
// @Param id path string true "request id"
// @Param type path string true "document type"
// @Param file formData file true "document file"
// @Success 200 {object} service.AttachResult
// @Router /requests/{id}/documents/{type} [put]
func AttachDocument(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
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

		res, err := svc.AttachDocument(c.UserContext(), actor, service.AttachInput{
			RequestID:   c.Params("id"),
			DocType:     c.Params("type"),
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// OpenDocument streams a stored document.
func OpenDocument(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		rc, info, err := svc.OpenDocument(c.UserContext(), actor, c.Params("id"), c.Params("type"))
		if err != nil {
			return err
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		return c.SendStream(rc, int(info.Size))
	}
}

type reviewBody struct {
	Decision         string   `json:"decision"`
	Reason           string   `json:"reason"`
	FlaggedDocuments []string `json:"flagged_documents"`
	ObservedStatus   string   `json:"observed_status"`
}

// ReviewRequest approves or rejects a pending request.
// @Summary Review a registration request
// @Security BearerAuth
// @Accept json
// @Param id path string true "request id"
// @Param body body reviewBody true "decision"
// @Success 200 {object} model.RegistrationRequest
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /requests/{id}/review [post]
func ReviewRequest(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var body reviewBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		req, err := svc.Review(c.UserContext(), actor, service.ReviewInput{
			RequestID:        c.Params("id"),
			Decision:         body.Decision,
			Reason:           body.Reason,
			FlaggedDocuments: body.FlaggedDocuments,
			ObservedStatus:   body.ObservedStatus,
		})
		if err != nil {
			return err
		}
		return c.JSON(req)
	}
}

// GenerateCredential renders one credential and returns the PDF.
// @Summary Generate a credential
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "request id"
// @Success 200 {file} file
// @Failure 409 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /requests/{id}/credential [post]
func GenerateCredential(svc service.IssuanceService, errs *Errors) fiber.Handler {
	return issueHandler(svc.Generate, errs)
}

// PrintCredential renders one credential and commits it as printed.
func PrintCredential(svc service.IssuanceService, errs *Errors) fiber.Handler {
	return issueHandler(svc.Print, errs)
}

type issueFunc func(ctx context.Context, actor model.Actor, requestID string) (*service.IssueResult, error)

func issueHandler(issue issueFunc, errs *Errors) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		res, err := issue(c.UserContext(), actor, c.Params("id"))
		if err != nil {
			if res != nil {
				return errs.writeWith(c, err, errorEnvelope{ArtifactURL: res.ArtifactURL})
			}
			return err
		}
		if res.ArtifactURL != "" {
			c.Set("X-Artifact-URL", res.ArtifactURL)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, res.FileName))
		return c.Send(res.PDF)
	}
}

type batchBody struct {
	RequestIDs []string `json:"request_ids"`
}

// GenerateBatch issues credentials for many requests.
// @Summary Generate credentials in batch
// @Security BearerAuth
// @Accept json
// @Param body body batchBody true "request ids"
// @Success 200 {object} model.BatchResult
// @Success 207 {object} model.BatchResult
// @Failure 422 {object} model.BatchResult
// @Router /credentials/generate-batch [post]
func GenerateBatch(svc service.IssuanceService) fiber.Handler {
	return batchHandler(svc.GenerateBatch)
}

// PrintBatch prints credentials for many requests.
// @Summary Print credentials in batch
// @Security BearerAuth
// @Accept json
// @Param body body batchBody true "request ids"
// @Success 200 {object} model.BatchResult
// @Success 207 {object} model.BatchResult
// @Failure 422 {object} model.BatchResult
// @Router /credentials/print-batch [post]
func PrintBatch(svc service.IssuanceService) fiber.Handler {
	return batchHandler(svc.PrintBatch)
}

type batchFunc func(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error)

func batchHandler(run batchFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var body batchBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := run(c.UserContext(), actor, body.RequestIDs)
		if err != nil {
			return err
		}
		return c.Status(batchStatus(res)).JSON(res)
	}
}

// batchStatus is 200 when every item succeeded, 422 when none did, 207 otherwise.
func batchStatus(res *model.BatchResult) int {
	switch {
	case res.AllSucceeded():
		return fiber.StatusOK
	case res.NoneSucceeded():
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusMultiStatus
	}
}

type collectionBody struct {
	CollectorName string `json:"collector_name"`
}

// RecordCollection marks a printed credential as collected.
// @Summary Record credential collection
// @Security BearerAuth
// @Accept json
// @Param id path string true "request id"
// @Param body body collectionBody true "collector"
// @Success 200 {object} model.RegistrationRequest
// @Router /requests/{id}/collection [post]
func RecordCollection(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return err
		}
		var body collectionBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		req, err := svc.RecordCollection(c.UserContext(), actor, c.Params("id"), body.CollectorName)
		if err != nil {
			return err
		}
		return c.JSON(req)
	}
}
