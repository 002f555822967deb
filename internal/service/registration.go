package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"regportal/internal/apperror"
	"regportal/internal/model"
	"regportal/internal/registration"
	"regportal/internal/repository"
	"regportal/internal/storage"
)

// SubmitInput is a new registration request.
type SubmitInput struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	CompanyID  string `json:"company_id"`
}

// ListInput filters and pages ListRequests.
type ListInput struct {
	Status string
	Limit  int
	Offset int
}

// RegistrationListResult is the service-level DTO for paginated requests.
type RegistrationListResult struct {
	Items []model.RegistrationRequest `json:"data"`
	Total int                         `json:"total"`
}

// ReviewInput is a reviewer's decision. ObservedStatus is the status the
// reviewer saw and defaults to pending; a mismatch fails with STALE_STATE.
type ReviewInput struct {
	RequestID        string
	Decision         string
	Reason           string
	FlaggedDocuments []string
	ObservedStatus   string
}

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// AttachInput is one uploaded document file.
type AttachInput struct {
	RequestID   string
	DocType     string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachResult is the request after an upload, with what is still missing.
type AttachResult struct {
	Request  *model.RegistrationRequest `json:"request"`
	Missing  []string                   `json:"missing_documents"`
	Reopened bool                       `json:"reopened"`
}

// RegistrationService covers submission, document upload, review and collection.
type RegistrationService interface {
	Submit(ctx context.Context, actor model.Actor, in SubmitInput) (*model.RegistrationRequest, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.RegistrationRequest, error)
	List(ctx context.Context, actor model.Actor, in ListInput) (*RegistrationListResult, error)
	RequiredDocuments(ctx context.Context) ([]model.RequiredDocumentType, error)
	MissingDocuments(ctx context.Context, actor model.Actor, id string) ([]string, error)

	// AttachDocument stores the file, records its reference and, for a rejected
	// request, reopens it when the reopen policy is satisfied.
	AttachDocument(ctx context.Context, actor model.Actor, in AttachInput) (*AttachResult, error)
	// OpenDocument streams a stored document back to a reviewer.
	OpenDocument(ctx context.Context, actor model.Actor, id, docType string) (io.ReadCloser, storage.ObjectInfo, error)

	Review(ctx context.Context, actor model.Actor, in ReviewInput) (*model.RegistrationRequest, error)
	// RecordCollection marks a printed credential as handed over.
	RecordCollection(ctx context.Context, actor model.Actor, id, collectorName string) (*model.RegistrationRequest, error)
}

type registrationService struct {
	common
	requests repository.RegistrationRepository
	docTypes repository.RequiredDocumentRepository
	store    storage.Storage
	engine   *registration.Engine
	reopen   registration.ReopenPolicy
}

func NewRegistrationService(
	requests repository.RegistrationRepository,
	docTypes repository.RequiredDocumentRepository,
	store storage.Storage,
	engine *registration.Engine,
	reopen registration.ReopenPolicy,
	opts ...Option,
) RegistrationService {
	return &registrationService{
		common:   newCommon(opts),
		requests: requests,
		docTypes: docTypes,
		store:    store,
		engine:   engine,
		reopen:   reopen,
	}
}

func (s *registrationService) Submit(ctx context.Context, actor model.Actor, in SubmitInput) (*model.RegistrationRequest, error) {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.EmployeeID == "" {
		return nil, apperror.Validation("employee_id is required")
	}
	if in.FullName == "" {
		return nil, apperror.Validation("full_name is required")
	}
	companyID := strings.TrimSpace(in.CompanyID)
	if actor.CompanyID != "" {
		companyID = actor.CompanyID
	}

	req := &model.RegistrationRequest{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		EmployeeID:     in.EmployeeID,
		FullName:       in.FullName,
		NationalID:     strings.TrimSpace(in.NationalID),
		Status:         model.StatusPending,
		Documents:      map[string]model.DocumentRef{},
		SubmissionDate: s.now(),
	}
	stored, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration submitted",
		"component", "registration_service",
		"event", "request_submitted",
		"request_id", stored.ID,
		"actor_id", actor.ID,
	)
	return stored, nil
}

func (s *registrationService) Get(ctx context.Context, actor model.Actor, id string) (*model.RegistrationRequest, error) {
	return loadScoped(ctx, s.requests, actor, id)
}

func (s *registrationService) List(ctx context.Context, actor model.Actor, in ListInput) (*RegistrationListResult, error) {
	if in.Limit <= 0 {
		in.Limit = 10
	}
	if in.Limit > 100 {
		in.Limit = 100
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	var status model.Status
	if in.Status != "" {
		st, err := model.ParseStatus(in.Status)
		if err != nil {
			return nil, apperror.Validation(err.Error())
		}
		status = st
	}

	res, err := s.requests.List(ctx, repository.RegistrationFilter{
		Status:    status,
		CompanyID: actor.CompanyID,
		Page:      repository.PageQuery{Limit: in.Limit, Offset: in.Offset},
	})
	if err != nil {
		return nil, err
	}
	return &RegistrationListResult{Items: res.Items, Total: res.Total}, nil
}

// RequiredDocuments reads the checklist fresh on every call; it is never cached.
func (s *registrationService) RequiredDocuments(ctx context.Context) ([]model.RequiredDocumentType, error) {
	return s.docTypes.List(ctx)
}

func (s *registrationService) MissingDocuments(ctx context.Context, actor model.Actor, id string) ([]string, error) {
	req, err := loadScoped(ctx, s.requests, actor, id)
	if err != nil {
		return nil, err
	}
	types, err := s.docTypes.List(ctx)
	if err != nil {
		return nil, err
	}
	return registration.Missing(req, types), nil
}

// RecordCollection validates the collector name before looking at the request,
// so an empty name never reaches the store.
func (s *registrationService) RecordCollection(ctx context.Context, actor model.Actor, id, collectorName string) (*model.RegistrationRequest, error) {
	if strings.TrimSpace(collectorName) == "" {
		return nil, apperror.Validation("collector name is required")
	}
	req, err := loadScoped(ctx, s.requests, actor, id)
	if err != nil {
		return nil, err
	}
	return s.engine.MarkCollected(ctx, req, actor.ID, collectorName)
}
