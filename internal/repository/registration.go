package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regportal/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrStale is returned when a conditional status write finds a different status.
	ErrStale = errors.New("stale status")
)

// StaleError carries the status found by a conditional write that did not apply.
type StaleError struct {
	ID       string
	Expected model.Status
	Current  model.Status
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("request %s: expected status %s, found %s", e.ID, e.Expected, e.Current)
}

func (e *StaleError) Is(target error) bool { return target == ErrStale }

// RegistrationRepository stores registration requests. There is no delete:
// requests are kept for audit.
type RegistrationRepository interface {
	// Create inserts a new request and returns the stored row.
	Create(ctx context.Context, req *model.RegistrationRequest) (*model.RegistrationRequest, error)

	// FindByID returns a request or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.RegistrationRequest, error)

	// List returns a filtered page ordered by newest submission first.
	List(ctx context.Context, f RegistrationFilter) (*PageResult[model.RegistrationRequest], error)

	// PutDocument merges one document reference into the request without touching status.
	PutDocument(ctx context.Context, id, docType string, ref model.DocumentRef) (*model.RegistrationRequest, error)

	// UpdateStatus applies change only if the stored status still equals change.From.
	// It returns *StaleError (matching ErrStale) when it does not, and ErrNotFound when
	// the row is missing. A status history row is appended with every applied change.
	UpdateStatus(ctx context.Context, change StatusChange) (*model.RegistrationRequest, error)
}

// RegistrationFilter narrows List. Zero values mean "any".
type RegistrationFilter struct {
	Status    model.Status
	CompanyID string
	Page      PageQuery
}

// StatusChange is a guarded status write plus the fields that move with it.
// Nil pointers leave the column untouched; a pointer to "" clears a text column.
type StatusChange struct {
	ID      string
	From    model.Status
	To      model.Status
	ActorID string
	At      time.Time

	ReviewerID       *string
	ReviewDate       *time.Time
	RejectionReason  *string
	FlaggedDocuments *[]string
	Printed          *bool
	PrintedAt        *time.Time
	GeneratedAt      *time.Time
	CollectedAt      *time.Time
	CollectorName    *string
}

// CredentialRepository stores issued credentials keyed by employee.
type CredentialRepository interface {
	// FindByEmployeeID returns the credential or ErrNotFound.
	FindByEmployeeID(ctx context.Context, employeeID string) (*model.Credential, error)

	// CreateIfAbsent stores c unless a credential for the employee exists, and
	// returns whichever row is stored. An existing row is never modified.
	CreateIfAbsent(ctx context.Context, c *model.Credential) (*model.Credential, error)

	// Activate marks the employee's credential active.
	Activate(ctx context.Context, employeeID string) error
}

// RequiredDocumentRepository reads the settings-owned document checklist.
type RequiredDocumentRepository interface {
	List(ctx context.Context) ([]model.RequiredDocumentType, error)
	Upsert(ctx context.Context, t model.RequiredDocumentType, position int) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
