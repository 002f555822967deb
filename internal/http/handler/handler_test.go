package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regportal/internal/apperror"
	"regportal/internal/http/middleware"
	"regportal/internal/model"
	"regportal/internal/service"
	serviceMocks "regportal/internal/service/mocks"
)

var reviewer = model.Actor{ID: "rev-1"}

type staticVerifier struct{}

func (staticVerifier) Verify(token string) (model.Actor, error) {
	if token != "good" {
		return model.Actor{}, apperror.New(apperror.CodeUnauthorized, "bad token")
	}
	return reviewer, nil
}

type testApp struct {
	app  *fiber.App
	regs *serviceMocks.MockRegistrationService
	iss  *serviceMocks.MockIssuanceService
}

func newTestApp(t *testing.T, db Pinger) *testApp {
	t.Helper()
	errs := NewErrors(nil)
	app := fiber.New(fiber.Config{ErrorHandler: errs.ErrorHandler()})
	ta := &testApp{
		app:  app,
		regs: new(serviceMocks.MockRegistrationService),
		iss:  new(serviceMocks.MockIssuanceService),
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "regportal_test_total", Help: "test"}))
	RegisterRoutes(app, Dependencies{
		DB:            db,
		Registrations: ta.regs,
		Issuance:      ta.iss,
		Verifier:      staticVerifier{},
		Gatherer:      reg,
		Errors:        errs,
	})
	return ta
}

func (ta *testApp) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer good")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) doJSON(t *testing.T, method, path string, v any) *http.Response {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return ta.do(t, method, path, bytes.NewReader(b), fiber.MIMEApplicationJSON)
}

func decodeError(t *testing.T, resp *http.Response) errorEnvelope {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Code)
	})

	t.Run("no database", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouting(t *testing.T) {
	ta := newTestApp(t, nil)

	t.Run("not found route", func(t *testing.T) {
		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Code)
	})

	t.Run("pipeline routes need a bearer token", func(t *testing.T) {
		for _, token := range []string{"", "Bearer bad"} {
			req := httptest.NewRequest(http.MethodGet, "/requests", nil)
			if token != "" {
				req.Header.Set("Authorization", token)
			}
			resp, _ := ta.app.Test(req)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
		}
		ta.regs.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(b), "regportal_test_total")
	})
}

func TestListRequests(t *testing.T) {
	ta := newTestApp(t, nil)

	t.Run("success", func(t *testing.T) {
		res := &service.RegistrationListResult{Items: []model.RegistrationRequest{{ID: "REG-1", Status: model.StatusPending}}, Total: 1}
		ta.regs.On("List", mock.Anything, reviewer, service.ListInput{Status: "pending", Limit: 5, Offset: 0}).Return(res, nil).Once()

		resp := ta.do(t, http.MethodGet, "/requests?status=pending&limit=5", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got service.RegistrationListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, "REG-1", got.Items[0].ID)
		ta.regs.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp := ta.do(t, http.MethodGet, "/requests?limit=abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Code)
	})

	t.Run("bad status filter", func(t *testing.T) {
		ta.regs.On("List", mock.Anything, reviewer, mock.Anything).Return(nil, apperror.Validation(`unknown status "shipped"`)).Once()
		resp := ta.do(t, http.MethodGet, "/requests?status=shipped", nil, "")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
	})
}

func TestGetRequest(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.regs.On("Get", mock.Anything, reviewer, "REG-1").
		Return(&model.RegistrationRequest{ID: "REG-1", Status: model.StatusIDPrinted, Printed: true}, nil).Once()
	ta.regs.On("Get", mock.Anything, reviewer, "REG-9").Return(nil, apperror.NotFound("registration request not found")).Once()

	resp := ta.do(t, http.MethodGet, "/requests/REG-1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		ID     string      `json:"id"`
		Status string      `json:"status"`
		Badge  model.Badge `json:"badge"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "REG-1", got.ID)
	assert.Equal(t, "id_printed", got.Status)
	assert.Equal(t, model.StatusIDPrinted.Badge(), got.Badge)

	resp = ta.do(t, http.MethodGet, "/requests/REG-9", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	ta.regs.AssertExpectations(t)
}

func TestReviewRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		check      func(t *testing.T, env errorEnvelope)
	}{
		{
			name:       "missing documents",
			err:        apperror.MissingDocuments([]string{"authorizationLetter"}),
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, env errorEnvelope) {
				assert.Equal(t, "MISSING_DOCUMENTS", env.Code)
				assert.Equal(t, []string{"authorizationLetter"}, env.MissingDocuments)
			},
		},
		{
			name:       "stale state",
			err:        apperror.StaleState(model.StatusPending, model.StatusApproved),
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, env errorEnvelope) {
				assert.Equal(t, "STALE_STATE", env.Code)
				assert.Equal(t, "approved", env.CurrentStatus)
			},
		},
		{
			name:       "invalid transition",
			err:        apperror.InvalidTransition(model.StatusIDCollected, model.StatusApproved),
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, env errorEnvelope) {
				assert.Equal(t, "INVALID_TRANSITION", env.Code)
				assert.Equal(t, "id_collected", env.CurrentStatus)
				assert.Equal(t, "approved", env.RequestedStatus)
			},
		},
		{
			name:       "not found",
			err:        apperror.NotFound("registration request not found"),
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, env errorEnvelope) {
				assert.Equal(t, "NOT_FOUND", env.Code)
			},
		},
		{
			name:       "internal error is not leaked",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, env errorEnvelope) {
				assert.Equal(t, "INTERNAL_ERROR", env.Code)
				assert.Equal(t, "internal server error", env.Message)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, nil)
			in := service.ReviewInput{RequestID: "REG-1000", Decision: "approve", ObservedStatus: "pending"}
			ta.regs.On("Review", mock.Anything, reviewer, in).Return(nil, tt.err).Once()

			resp := ta.doJSON(t, http.MethodPost, "/requests/REG-1000/review", map[string]string{
				"decision":        "approve",
				"observed_status": "pending",
			})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			tt.check(t, decodeError(t, resp))
			ta.regs.AssertExpectations(t)
		})
	}
}

func TestReviewRequest_Success(t *testing.T) {
	ta := newTestApp(t, nil)
	in := service.ReviewInput{RequestID: "REG-1", Decision: "reject", Reason: "blurry", FlaggedDocuments: []string{"photo"}}
	ta.regs.On("Review", mock.Anything, reviewer, in).
		Return(&model.RegistrationRequest{ID: "REG-1", Status: model.StatusRejected, RejectionReason: "blurry"}, nil).Once()

	resp := ta.doJSON(t, http.MethodPost, "/requests/REG-1/review", map[string]any{
		"decision":          "reject",
		"reason":            "blurry",
		"flagged_documents": []string{"photo"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.RegistrationRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.StatusRejected, got.Status)
	ta.regs.AssertExpectations(t)
}

func TestAttachDocument(t *testing.T) {
	ta := newTestApp(t, nil)

	t.Run("success", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "letter.pdf")
		part.Write([]byte("%PDF-1.4"))
		writer.Close()

		ta.regs.On("AttachDocument", mock.Anything, reviewer, mock.MatchedBy(func(in service.AttachInput) bool {
			return in.RequestID == "REG-1" && in.DocType == "authorizationLetter" && in.Filename == "letter.pdf" && in.Size == 8
		})).Return(&service.AttachResult{
			Request:  &model.RegistrationRequest{ID: "REG-1", Status: model.StatusPending},
			Missing:  []string{},
			Reopened: true,
		}, nil).Once()

		resp := ta.do(t, http.MethodPut, "/requests/REG-1/documents/authorizationLetter", body, writer.FormDataContentType())
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got service.AttachResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.True(t, got.Reopened)
		ta.regs.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp := ta.do(t, http.MethodPut, "/requests/REG-1/documents/photo", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Code)
	})
}

func TestGenerateCredential(t *testing.T) {
	t.Run("returns the pdf", func(t *testing.T) {
		ta := newTestApp(t, nil)
		ta.iss.On("Generate", mock.Anything, reviewer, "REG-1").Return(&service.IssueResult{
			PDF:         []byte("%PDF-1.3 card"),
			FileName:    "employee-id-E1.pdf",
			ArtifactURL: "memory://b/credentials/employee-id-E1.pdf",
		}, nil).Once()

		resp := ta.do(t, http.MethodPost, "/requests/REG-1/credential", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="employee-id-E1.pdf"`, resp.Header.Get("Content-Disposition"))
		b, _ := io.ReadAll(resp.Body)
		assert.True(t, strings.HasPrefix(string(b), "%PDF"))
	})

	t.Run("persist failure reports the delivered artifact", func(t *testing.T) {
		ta := newTestApp(t, nil)
		ta.iss.On("Print", mock.Anything, reviewer, "REG-1").Return(&service.IssueResult{
			ArtifactURL: "memory://b/credentials/employee-id-E1.pdf",
		}, apperror.PersistFailure(errors.New("tx aborted"))).Once()

		resp := ta.do(t, http.MethodPost, "/requests/REG-1/print", nil, "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeError(t, resp)
		assert.Equal(t, "PERSIST_FAILURE", env.Code)
		assert.True(t, env.ArtifactDelivered)
		assert.Equal(t, "memory://b/credentials/employee-id-E1.pdf", env.ArtifactURL)
	})

	t.Run("render failure", func(t *testing.T) {
		ta := newTestApp(t, nil)
		ta.iss.On("Generate", mock.Anything, reviewer, "REG-1").Return(nil, apperror.RenderFailure("full name is required", nil)).Once()

		resp := ta.do(t, http.MethodPost, "/requests/REG-1/credential", nil, "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeError(t, resp)
		assert.Equal(t, "RENDER_FAILURE", env.Code)
		assert.False(t, env.ArtifactDelivered)
	})
}

func TestBatchStatusCodes(t *testing.T) {
	ok := model.BatchItem{RequestID: "a", Outcome: model.OutcomeSuccess}
	bad := model.BatchItem{RequestID: "b", Outcome: model.OutcomeFailure, Error: &model.ItemError{Code: "RENDER_FAILURE", Message: "x"}}

	tests := []struct {
		name  string
		items []model.BatchItem
		want  int
	}{
		{name: "all succeeded", items: []model.BatchItem{ok}, want: http.StatusOK},
		{name: "mixed", items: []model.BatchItem{ok, bad}, want: http.StatusMultiStatus},
		{name: "none succeeded", items: []model.BatchItem{bad}, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, nil)
			ta.iss.On("PrintBatch", mock.Anything, reviewer, []string{"a", "b"}).
				Return(&model.BatchResult{BatchID: "batch-1", Items: tt.items}, nil).Once()

			resp := ta.doJSON(t, http.MethodPost, "/credentials/print-batch", map[string]any{"request_ids": []string{"a", "b"}})
			assert.Equal(t, tt.want, resp.StatusCode)

			var got model.BatchResult
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Len(t, got.Items, len(tt.items))
		})
	}

	t.Run("empty batch is a validation error", func(t *testing.T) {
		ta := newTestApp(t, nil)
		ta.iss.On("GenerateBatch", mock.Anything, reviewer, []string(nil)).
			Return(nil, apperror.Validation("request_ids must not be empty")).Once()

		resp := ta.doJSON(t, http.MethodPost, "/credentials/generate-batch", map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
	})
}

func TestRecordCollection(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.regs.On("RecordCollection", mock.Anything, reviewer, "REG-1", "").
		Return(nil, apperror.Validation("collector name is required")).Once()
	ta.regs.On("RecordCollection", mock.Anything, reviewer, "REG-1", "Ada").
		Return(&model.RegistrationRequest{ID: "REG-1", Status: model.StatusIDCollected, CollectorName: "Ada"}, nil).Once()

	resp := ta.doJSON(t, http.MethodPost, "/requests/REG-1/collection", map[string]string{"collector_name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ta.doJSON(t, http.MethodPost, "/requests/REG-1/collection", map[string]string{"collector_name": "Ada"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	ta.regs.AssertExpectations(t)
}

func TestErrorHandler_EchoesRequestID(t *testing.T) {
	errs := NewErrors(nil)
	app := fiber.New(fiber.Config{ErrorHandler: errs.ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperror.NotFound("registration request not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(middleware.RequestIDHeader, "rid-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "rid-42", body.RequestID)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}
