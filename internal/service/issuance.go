package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"regportal/internal/apperror"
	"regportal/internal/credential"
	"regportal/internal/model"
	"regportal/internal/registration"
	"regportal/internal/repository"
	"regportal/internal/storage"
)

// Renderer draws card faces and composes them into a paged artifact.
type Renderer interface {
	Rasterize(req *model.RegistrationRequest, cred *model.Credential) (image.Image, error)
	Compose(faces []image.Image) ([]byte, error)
}

// IssuanceConfig tunes credential issuance.
type IssuanceConfig struct {
	ValidityYears int
	Concurrency   int
	MaxItems      int
	URLTTL        time.Duration
}

// IssueResult is the outcome of a single-item issuance. It is returned together
// with a PERSIST_FAILURE error when the artifact exists but the status commit failed.
type IssueResult struct {
	Request     *model.RegistrationRequest
	Credential  *model.Credential
	PDF         []byte
	FileName    string
	ArtifactKey string
	ArtifactURL string
}

// IssuanceService renders credentials and commits issuance state. Rendering
// always completes before any status write.
type IssuanceService interface {
	// Generate renders one credential and moves approved -> id_generated. For
	// id_generated, id_printed and id_collected it re-renders without a transition.
	Generate(ctx context.Context, actor model.Actor, requestID string) (*IssueResult, error)
	// Print renders one credential and commits it as printed.
	Print(ctx context.Context, actor model.Actor, requestID string) (*IssueResult, error)
	// GenerateBatch and PrintBatch isolate failures per item and always return a
	// result listing every requested id in input order.
	GenerateBatch(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error)
	PrintBatch(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error)
}

type issueMode string

const (
	modeGenerate issueMode = "generate"
	modePrint    issueMode = "print"
)

type issuanceService struct {
	common
	requests    repository.RegistrationRepository
	credentials repository.CredentialRepository
	store       storage.Storage
	renderer    Renderer
	engine      *registration.Engine
	cfg         IssuanceConfig
}

func NewIssuanceService(
	requests repository.RegistrationRepository,
	credentials repository.CredentialRepository,
	store storage.Storage,
	renderer Renderer,
	engine *registration.Engine,
	cfg IssuanceConfig,
	opts ...Option,
) IssuanceService {
	if cfg.ValidityYears <= 0 {
		cfg.ValidityYears = 2
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 100
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	return &issuanceService{
		common:      newCommon(opts),
		requests:    requests,
		credentials: credentials,
		store:       store,
		renderer:    renderer,
		engine:      engine,
		cfg:         cfg,
	}
}

// plan is one request that rendered successfully and awaits commit.
type plan struct {
	req   *model.RegistrationRequest
	cred  *model.Credential
	face  image.Image
	draft bool
}

func (s *issuanceService) Generate(ctx context.Context, actor model.Actor, requestID string) (*IssueResult, error) {
	return s.issueOne(ctx, actor, requestID, modeGenerate)
}

func (s *issuanceService) Print(ctx context.Context, actor model.Actor, requestID string) (*IssueResult, error) {
	return s.issueOne(ctx, actor, requestID, modePrint)
}

func (s *issuanceService) GenerateBatch(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error) {
	return s.runBatch(ctx, actor, requestIDs, modeGenerate)
}

func (s *issuanceService) PrintBatch(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error) {
	return s.runBatch(ctx, actor, requestIDs, modePrint)
}

func (s *issuanceService) issueOne(ctx context.Context, actor model.Actor, requestID string, mode issueMode) (*IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "issuance."+string(mode))
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID))

	p, err := s.prepare(ctx, actor, requestID, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.CodeOf(err)))
		return nil, err
	}

	pdf, err := s.compose([]image.Image{p.face})
	if err == nil {
		var redrawn bool
		if redrawn, err = s.claim(ctx, p); err == nil && redrawn {
			pdf, err = s.compose([]image.Image{p.face})
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	key := "credentials/" + credential.FileName(p.req.EmployeeID)
	if err := s.deliver(ctx, key, pdf); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// The artifact exists now; the commit must finish even if the caller goes away.
	commitCtx := context.WithoutCancel(ctx)
	result := &IssueResult{
		Request:     p.req,
		Credential:  p.cred,
		PDF:         pdf,
		FileName:    credential.FileName(p.req.EmployeeID),
		ArtifactKey: key,
		ArtifactURL: s.presign(commitCtx, key),
	}
	updated, err := s.commit(commitCtx, actor, p, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.CodeOf(err)))
		s.logger.Error("credential commit failed",
			"component", "issuance",
			"event", "persist_failure",
			"request_id", p.req.ID,
			"mode", string(mode),
			"error", err.Error(),
		)
		return result, err
	}
	result.Request = updated
	return result, nil
}

func (s *issuanceService) runBatch(ctx context.Context, actor model.Actor, requestIDs []string, mode issueMode) (*model.BatchResult, error) {
	if len(requestIDs) == 0 {
		return nil, apperror.Validation("request_ids must not be empty")
	}
	if len(requestIDs) > s.cfg.MaxItems {
		return nil, apperror.Validation(fmt.Sprintf("a batch holds at most %d requests, got %d", s.cfg.MaxItems, len(requestIDs)))
	}

	batchID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "issuance.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", batchID),
		attribute.String("batch.mode", string(mode)),
		attribute.Int("batch.size", len(requestIDs)),
	)

	ids := make([]string, len(requestIDs))
	plans := make([]*plan, len(requestIDs))
	errs := make([]error, len(requestIDs))
	seen := make(map[string]struct{}, len(requestIDs))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, raw := range requestIDs {
		id := strings.TrimSpace(raw)
		ids[i] = id
		if id == "" {
			errs[i] = apperror.Validation("request id is required")
			continue
		}
		if _, dup := seen[id]; dup {
			errs[i] = apperror.Validation("request id appears more than once in the batch")
			continue
		}
		seen[id] = struct{}{}

		// Each goroutine owns index i; a failure is recorded, never returned,
		// so no item can cancel its siblings.
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = apperror.RenderFailure("batch cancelled before render", err)
				return nil
			}
			plans[i], errs[i] = s.prepare(ctx, actor, id, mode)
			return nil
		})
	}
	_ = g.Wait()

	result := &model.BatchResult{BatchID: batchID, Items: make([]model.BatchItem, len(requestIDs))}

	var rendered []int
	for i := range plans {
		if errs[i] == nil && plans[i] != nil {
			rendered = append(rendered, i)
		}
	}
	if len(rendered) > 0 {
		key := "credentials/batches/" + batchID + ".pdf"
		pdf, err := s.compose(facesOf(plans, rendered))
		if err == nil {
			var redrawn bool
			rendered, redrawn = s.claimAll(ctx, plans, rendered, errs)
			if redrawn && len(rendered) > 0 {
				pdf, err = s.compose(facesOf(plans, rendered))
			}
		}
		if err == nil && len(rendered) > 0 {
			err = s.deliver(ctx, key, pdf)
			if err == nil {
				result.ArtifactKey = key
			}
		}
		if err != nil {
			for _, i := range rendered {
				errs[i] = err
			}
			rendered = nil
		}
	}

	commitCtx := context.WithoutCancel(ctx)
	for _, i := range rendered {
		if _, err := s.commit(commitCtx, actor, plans[i], mode); err != nil {
			errs[i] = err
		}
	}
	if result.ArtifactKey != "" {
		result.ArtifactURL = s.presign(commitCtx, result.ArtifactKey)
	}

	for i := range requestIDs {
		item := model.BatchItem{RequestID: ids[i], Outcome: model.OutcomeSuccess}
		code := ""
		if err := errs[i]; err != nil {
			code = string(apperror.CodeOf(err))
			item.Outcome = model.OutcomeFailure
			item.Error = &model.ItemError{Code: code, Message: itemMessage(err)}
		}
		result.Items[i] = item
		s.metrics.IncrementBatchItem(string(mode), item.Outcome, code)
	}

	succeeded := len(result.Succeeded())
	span.SetAttributes(attribute.Int("batch.succeeded", succeeded))
	s.logger.Info("credential batch finished",
		"component", "issuance",
		"event", "batch_finished",
		"batch_id", batchID,
		"mode", string(mode),
		"items", len(requestIDs),
		"succeeded", succeeded,
		"failed", len(requestIDs)-succeeded,
		"actor_id", actor.ID,
	)
	return result, nil
}

// prepare checks the request can be issued in mode and rasterizes its card. It
// writes nothing; a new credential is only drafted.
func (s *issuanceService) prepare(ctx context.Context, actor model.Actor, id string, mode issueMode) (*plan, error) {
	req, err := loadScoped(ctx, s.requests, actor, id)
	if err != nil {
		return nil, err
	}
	if err := issuable(req.Status, mode); err != nil {
		return nil, err
	}

	cred, err := s.credentials.FindByEmployeeID(ctx, req.EmployeeID)
	draft := false
	switch {
	case errors.Is(err, repository.ErrNotFound):
		now := s.now()
		cred = &model.Credential{
			EmployeeID: req.EmployeeID,
			RequestID:  req.ID,
			IDNumber:   uuid.NewString(),
			IssueDate:  now,
			ExpiryDate: now.AddDate(s.cfg.ValidityYears, 0, 0),
			Status:     model.CredentialPending,
		}
		draft = true
	case err != nil:
		return nil, fmt.Errorf("load credential: %w", err)
	}

	face, err := s.rasterize(req, cred)
	if err != nil {
		return nil, err
	}
	return &plan{req: req, cred: cred, face: face, draft: draft}, nil
}

// claim stores a drafted credential once its artifact has been composed. A
// concurrent issuer may have stored one first; its row wins and the card is
// redrawn from it, reported by redrawn.
func (s *issuanceService) claim(ctx context.Context, p *plan) (redrawn bool, err error) {
	if !p.draft {
		return false, nil
	}
	stored, err := s.credentials.CreateIfAbsent(ctx, p.cred)
	if err != nil {
		return false, fmt.Errorf("store credential: %w", err)
	}
	p.draft = false
	if stored.IDNumber == p.cred.IDNumber {
		p.cred = stored
		return false, nil
	}
	face, err := s.rasterize(p.req, stored)
	if err != nil {
		return false, err
	}
	p.cred, p.face = stored, face
	return true, nil
}

// claimAll claims every rendered plan in input order. Items that fail are
// recorded in errs and dropped from the returned indexes.
func (s *issuanceService) claimAll(ctx context.Context, plans []*plan, rendered []int, errs []error) ([]int, bool) {
	kept := rendered[:0:0]
	changed := false
	for _, i := range rendered {
		redrawn, err := s.claim(ctx, plans[i])
		if err != nil {
			errs[i] = err
			changed = true
			continue
		}
		changed = changed || redrawn
		kept = append(kept, i)
	}
	return kept, changed
}

func facesOf(plans []*plan, idx []int) []image.Image {
	faces := make([]image.Image, len(idx))
	for n, i := range idx {
		faces[n] = plans[i].face
	}
	return faces
}

func (s *issuanceService) rasterize(req *model.RegistrationRequest, cred *model.Credential) (image.Image, error) {
	start := time.Now()
	defer s.metrics.ObserveRender(start)
	face, err := s.renderer.Rasterize(req, cred)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeRenderFailure) {
			return nil, err
		}
		return nil, apperror.RenderFailure("rasterize credential", err)
	}
	return face, nil
}

func (s *issuanceService) compose(faces []image.Image) ([]byte, error) {
	pdf, err := s.renderer.Compose(faces)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeRenderFailure) {
			return nil, err
		}
		return nil, apperror.RenderFailure("compose credential artifact", err)
	}
	return pdf, nil
}

// commit applies the status writes for a delivered artifact. Any failure here
// is a PERSIST_FAILURE.
func (s *issuanceService) commit(ctx context.Context, actor model.Actor, p *plan, mode issueMode) (*model.RegistrationRequest, error) {
	cur := p.req
	var err error
	at := s.now()

	if cur.Status == model.StatusApproved {
		if cur, err = s.engine.MarkGenerated(ctx, cur, actor.ID, at); err != nil {
			return nil, apperror.PersistFailure(err)
		}
	}
	if mode == modeGenerate {
		return cur, nil
	}

	if cur, err = s.engine.MarkPrinted(ctx, cur, actor.ID, at); err != nil {
		return nil, apperror.PersistFailure(err)
	}
	if err := s.credentials.Activate(ctx, p.cred.EmployeeID); err != nil {
		return nil, apperror.PersistFailure(fmt.Errorf("activate credential: %w", err))
	}
	return cur, nil
}

func (s *issuanceService) deliver(ctx context.Context, key string, pdf []byte) error {
	_, err := s.store.Put(ctx, key, bytes.NewReader(pdf), storage.PutObjectOptions{
		Size:        int64(len(pdf)),
		ContentType: "application/pdf",
	})
	if err != nil {
		return apperror.RenderFailure("deliver credential artifact", err)
	}
	return nil
}

// presign is best effort: the artifact key is still reported without a URL.
func (s *issuanceService) presign(ctx context.Context, key string) string {
	u, err := s.store.PresignGet(ctx, key, s.cfg.URLTTL)
	if err != nil {
		s.logger.Warn("presign artifact failed",
			"component", "issuance",
			"event", "presign_failed",
			"artifact_key", key,
			"error", err.Error(),
		)
		return ""
	}
	return u
}

// issuable reports whether a request in status can be issued in mode.
// Regeneration is allowed after collection; printing stops at the terminal state.
func issuable(status model.Status, mode issueMode) error {
	target := model.StatusIDPrinted
	if mode == modeGenerate {
		target = model.StatusIDGenerated
	}
	switch status {
	case model.StatusApproved, model.StatusIDGenerated, model.StatusIDPrinted, model.StatusIDCollected:
		if mode == modeGenerate || !status.Terminal() {
			return nil
		}
	}
	return apperror.InvalidTransition(status, target)
}

func itemMessage(err error) string {
	if e, ok := apperror.As(err); ok {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	return err.Error()
}
