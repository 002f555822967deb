package registration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"regportal/internal/apperror"
	"regportal/internal/model"
	"regportal/internal/repository"
)

// StatusWriter is the guarded write the engine drives. Nothing else in the
// service writes status.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, change repository.StatusChange) (*model.RegistrationRequest, error)
}

// TransitionObserver receives one call per attempted transition.
type TransitionObserver interface {
	ObserveTransition(from, to model.Status, result string)
}

const (
	ResultApplied = "applied"
	ResultInvalid = "invalid"
	ResultRefused = "guard_refused"
	ResultStale   = "stale"
	ResultErrored = "error"
)

// Engine performs status transitions with their guards and an optimistic
// concurrency check on the status the caller observed.
type Engine struct {
	store    StatusWriter
	now      func() time.Time
	logger   *slog.Logger
	observer TransitionObserver
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithObserver(o TransitionObserver) Option {
	return func(e *Engine) { e.observer = o }
}

func NewEngine(store StatusWriter, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Approve moves pending -> approved once every required document is present.
func (e *Engine) Approve(ctx context.Context, req *model.RegistrationRequest, types []model.RequiredDocumentType, reviewerID string) (*model.RegistrationRequest, error) {
	to := model.StatusApproved
	if err := e.legal(req, to); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reviewerID) == "" {
		return nil, e.refuse(req, to, apperror.Validation("reviewer identity is required"))
	}
	if missing := Missing(req, types); len(missing) > 0 {
		return nil, e.refuse(req, to, apperror.MissingDocuments(missing))
	}
	now := e.now()
	return e.apply(ctx, repository.StatusChange{
		ID:         req.ID,
		From:       req.Status,
		To:         to,
		ActorID:    reviewerID,
		At:         now,
		ReviewerID: &reviewerID,
		ReviewDate: &now,
	})
}

// Reject moves pending -> rejected with a mandatory reason. flagged names the
// document types the submitter has to replace.
func (e *Engine) Reject(ctx context.Context, req *model.RegistrationRequest, reviewerID, reason string, flagged []string) (*model.RegistrationRequest, error) {
	to := model.StatusRejected
	if err := e.legal(req, to); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, e.refuse(req, to, apperror.Validation("rejection reason is required"))
	}
	if strings.TrimSpace(reviewerID) == "" {
		return nil, e.refuse(req, to, apperror.Validation("reviewer identity is required"))
	}
	if flagged == nil {
		flagged = []string{}
	}
	now := e.now()
	return e.apply(ctx, repository.StatusChange{
		ID:               req.ID,
		From:             req.Status,
		To:               to,
		ActorID:          reviewerID,
		At:               now,
		ReviewerID:       &reviewerID,
		ReviewDate:       &now,
		RejectionReason:  &reason,
		FlaggedDocuments: &flagged,
	})
}

// Reopen moves rejected -> pending when the re-uploaded documents satisfy policy.
func (e *Engine) Reopen(ctx context.Context, req *model.RegistrationRequest, policy ReopenPolicy, actorID string) (*model.RegistrationRequest, error) {
	to := model.StatusPending
	if err := e.legal(req, to); err != nil {
		return nil, err
	}
	if !policy.ShouldReopen(req) {
		return nil, e.refuse(req, to, apperror.Validation(fmt.Sprintf("uploads do not satisfy the %s reopen policy", policy)))
	}
	cleared := ""
	none := []string{}
	return e.apply(ctx, repository.StatusChange{
		ID:               req.ID,
		From:             req.Status,
		To:               to,
		ActorID:          actorID,
		At:               e.now(),
		RejectionReason:  &cleared,
		FlaggedDocuments: &none,
	})
}

// MarkGenerated moves approved -> id_generated. Call it only after the
// credential artifact exists.
func (e *Engine) MarkGenerated(ctx context.Context, req *model.RegistrationRequest, actorID string, at time.Time) (*model.RegistrationRequest, error) {
	to := model.StatusIDGenerated
	if err := e.legal(req, to); err != nil {
		return nil, err
	}
	return e.apply(ctx, repository.StatusChange{
		ID:          req.ID,
		From:        req.Status,
		To:          to,
		ActorID:     actorID,
		At:          at,
		GeneratedAt: &at,
	})
}

// MarkPrinted moves id_generated -> id_printed. A reprint of an id_printed
// request refreshes printed_at through the same guarded write.
func (e *Engine) MarkPrinted(ctx context.Context, req *model.RegistrationRequest, actorID string, at time.Time) (*model.RegistrationRequest, error) {
	to := model.StatusIDPrinted
	if req.Status != model.StatusIDPrinted {
		if err := e.legal(req, to); err != nil {
			return nil, err
		}
	}
	printed := true
	return e.apply(ctx, repository.StatusChange{
		ID:        req.ID,
		From:      req.Status,
		To:        to,
		ActorID:   actorID,
		At:        at,
		Printed:   &printed,
		PrintedAt: &at,
	})
}

// MarkCollected moves id_printed -> id_collected, the terminal state.
func (e *Engine) MarkCollected(ctx context.Context, req *model.RegistrationRequest, actorID, collectorName string) (*model.RegistrationRequest, error) {
	to := model.StatusIDCollected
	if err := e.legal(req, to); err != nil {
		return nil, err
	}
	collectorName = strings.TrimSpace(collectorName)
	if collectorName == "" {
		return nil, e.refuse(req, to, apperror.Validation("collector name is required"))
	}
	now := e.now()
	return e.apply(ctx, repository.StatusChange{
		ID:            req.ID,
		From:          req.Status,
		To:            to,
		ActorID:       actorID,
		At:            now,
		CollectedAt:   &now,
		CollectorName: &collectorName,
	})
}

func (e *Engine) legal(req *model.RegistrationRequest, to model.Status) error {
	if CanTransition(req.Status, to) {
		return nil
	}
	e.observe(req.Status, to, ResultInvalid)
	e.logger.Debug("transition invalid",
		"component", "transition_engine",
		"request_id", req.ID,
		"from", req.Status,
		"to", to,
		"allowed", Next(req.Status),
	)
	return apperror.InvalidTransition(req.Status, to)
}

func (e *Engine) refuse(req *model.RegistrationRequest, to model.Status, err error) error {
	e.observe(req.Status, to, ResultRefused)
	e.logger.Debug("transition refused",
		"component", "transition_engine",
		"request_id", req.ID,
		"from", req.Status,
		"to", to,
		"reason", err.Error(),
	)
	return err
}

func (e *Engine) apply(ctx context.Context, change repository.StatusChange) (*model.RegistrationRequest, error) {
	out, err := e.store.UpdateStatus(ctx, change)
	if err != nil {
		var stale *repository.StaleError
		switch {
		case errors.As(err, &stale):
			e.observe(change.From, change.To, ResultStale)
			se := apperror.StaleState(change.From, stale.Current)
			se.Err = err
			return nil, se
		case errors.Is(err, repository.ErrNotFound):
			e.observe(change.From, change.To, ResultErrored)
			return nil, apperror.NotFound("registration request not found")
		default:
			e.observe(change.From, change.To, ResultErrored)
			return nil, fmt.Errorf("update status %s -> %s: %w", change.From, change.To, err)
		}
	}
	e.observe(change.From, change.To, ResultApplied)
	e.logger.Info("status changed",
		"component", "transition_engine",
		"event", "status_changed",
		"request_id", change.ID,
		"from", change.From,
		"to", change.To,
		"actor_id", change.ActorID,
	)
	return out, nil
}

func (e *Engine) observe(from, to model.Status, result string) {
	if e.observer != nil {
		e.observer.ObserveTransition(from, to, result)
	}
}
