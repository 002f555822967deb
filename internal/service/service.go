// Package service holds the registration pipeline use cases. Handlers call
// these; nothing here knows about HTTP.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"regportal/internal/apperror"
	"regportal/internal/logging"
	"regportal/internal/metrics"
	"regportal/internal/model"
	"regportal/internal/repository"
)

// Option configures the ambient dependencies shared by the services.
type Option func(*common)

type common struct {
	logger  *slog.Logger
	metrics *metrics.Pipeline
	tracer  trace.Tracer
	now     func() time.Time
}

func newCommon(opts []Option) common {
	c := common{
		logger: logging.Discard(),
		tracer: otel.Tracer("regportal/service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *common) { c.logger = logger }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(c *common) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *common) { c.now = now }
}

// loadScoped fetches a request and hides it from actors of another company.
func loadScoped(ctx context.Context, repo repository.RegistrationRepository, actor model.Actor, id string) (*model.RegistrationRequest, error) {
	if id == "" {
		return nil, apperror.Validation("request id is required")
	}
	req, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("registration request not found")
		}
		return nil, err
	}
	if actor.CompanyID != "" && req.CompanyID != actor.CompanyID {
		return nil, apperror.NotFound("registration request not found")
	}
	return req, nil
}
