package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regportal/internal/auth"
	"regportal/internal/logging"
	"regportal/internal/model"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/echo", func(c *fiber.Ctx) error {
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		if rid != RequestIDFrom(c.UserContext()) {
			return fiber.ErrInternalServerError
		}
		return c.SendString(rid)
	})

	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated when absent"},
		{name: "caller id is kept", incoming: "test-id-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/echo", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			echoed := resp.Header.Get(RequestIDHeader)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, echoed, string(body))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, echoed)
			} else {
				assert.Len(t, echoed, 36)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	app.Use(RequestID())
	app.Use(Logger(logging.New(&buf, loc, slog.LevelInfo)))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_RecordsHandledErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusConflict).SendString(err.Error())
		},
	})
	app.Use(Logger(logging.New(&buf, time.UTC, slog.LevelInfo)))
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return errors.New("lost race")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, float64(fiber.StatusConflict), logData["status"])
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenService("secret", "regportal")
	good, err := tokens.Issue(model.Actor{ID: "reviewer-1", CompanyID: "acme"}, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Authenticate(tokens))
	app.Get("/me", func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(actor)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + good, want: fiber.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: fiber.StatusUnauthorized},
		{name: "valid", header: "Bearer " + good, want: fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == fiber.StatusOK {
				var actor model.Actor
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&actor))
				assert.Equal(t, "reviewer-1", actor.ID)
				assert.Equal(t, "acme", actor.CompanyID)
			}
		})
	}
}
