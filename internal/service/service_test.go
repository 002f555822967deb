package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"regportal/internal/model"
	"regportal/internal/registration"
	"regportal/internal/repository"
	"regportal/internal/repository/memory"
	"regportal/internal/storage"
)

var checklist = []model.RequiredDocumentType{
	{Name: "idDocument", Required: true},
	{Name: "photo", Required: true},
	{Name: "authorizationLetter", Required: true},
	{Name: "referenceLetter", Required: false},
}

// tickClock advances one minute per reading so uploads sort after reviews.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fakeRenderer struct {
	mu         sync.Mutex
	failFor    map[string]bool
	composeErr error
	rasterized []string
	composed   []int
}

func (r *fakeRenderer) Rasterize(req *model.RegistrationRequest, cred *model.Credential) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[req.EmployeeID] {
		return nil, errors.New("layout overflow")
	}
	r.rasterized = append(r.rasterized, cred.IDNumber)
	return image.NewRGBA(image.Rect(0, 0, 4, 2)), nil
}

func (r *fakeRenderer) Compose(faces []image.Image) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.composeErr != nil {
		return nil, r.composeErr
	}
	r.composed = append(r.composed, len(faces))
	return []byte(fmt.Sprintf("%%PDF-fake pages=%d", len(faces))), nil
}

// failingWriter fails every status write into one target status.
type failingWriter struct {
	*memory.RegistrationStore
	failTo model.Status
}

func (f failingWriter) UpdateStatus(ctx context.Context, change repository.StatusChange) (*model.RegistrationRequest, error) {
	if change.To == f.failTo {
		return nil, errors.New("connection reset by peer")
	}
	return f.RegistrationStore.UpdateStatus(ctx, change)
}

type fixture struct {
	requests *memory.RegistrationStore
	creds    *memory.CredentialStore
	store    *storage.MemoryStorage
	renderer *fakeRenderer
	reg      RegistrationService
	iss      IssuanceService
}

type fixtureOptions struct {
	wrap      func(*memory.RegistrationStore) repository.RegistrationRepository
	wrapCreds func(*memory.CredentialStore) repository.CredentialRepository
	policy   registration.ReopenPolicy
	maxItems int
}

func newFixture(t *testing.T, opts ...func(*fixtureOptions)) *fixture {
	t.Helper()
	o := fixtureOptions{policy: registration.ReopenAnyUpload, maxItems: 10}
	for _, opt := range opts {
		opt(&o)
	}

	f := &fixture{
		requests: memory.NewRegistrationStore(),
		creds:    memory.NewCredentialStore(),
		store:    storage.NewMemory("regportal"),
		renderer: &fakeRenderer{failFor: map[string]bool{}},
	}
	var repo repository.RegistrationRepository = f.requests
	if o.wrap != nil {
		repo = o.wrap(f.requests)
	}
	var creds repository.CredentialRepository = f.creds
	if o.wrapCreds != nil {
		creds = o.wrapCreds(f.creds)
	}
	clock := &tickClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	engine := registration.NewEngine(repo, registration.WithClock(clock.Now))
	docTypes := memory.NewRequiredDocumentStore(checklist...)

	f.reg = NewRegistrationService(repo, docTypes, f.store, engine, o.policy, WithClock(clock.Now))
	f.iss = NewIssuanceService(repo, creds, f.store, f.renderer, engine, IssuanceConfig{
		ValidityYears: 2,
		Concurrency:   3,
		MaxItems:      o.maxItems,
		URLTTL:        time.Minute,
	}, WithClock(clock.Now))
	return f
}

func withWriter(wrap func(*memory.RegistrationStore) repository.RegistrationRepository) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.wrap = wrap }
}

func withCredentials(wrap func(*memory.CredentialStore) repository.CredentialRepository) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.wrapCreds = wrap }
}

// lateReader misses every existing credential, as if another issuer stored it
// between the read and the insert.
type lateReader struct {
	*memory.CredentialStore
}

func (lateReader) FindByEmployeeID(context.Context, string) (*model.Credential, error) {
	return nil, repository.ErrNotFound
}

func withMaxItems(n int) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.maxItems = n }
}

func docRefs(names ...string) map[string]model.DocumentRef {
	out := make(map[string]model.DocumentRef, len(names))
	for _, n := range names {
		out[n] = model.DocumentRef{
			URL:        "registrations/seed/" + n,
			UploadedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func (f *fixture) seed(t *testing.T, id string, status model.Status, docs ...string) {
	t.Helper()
	req := &model.RegistrationRequest{
		ID:             id,
		CompanyID:      "acme",
		EmployeeID:     "EMP-" + id,
		FullName:       "Person " + id,
		Status:         status,
		Documents:      docRefs(docs...),
		SubmissionDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if status != model.StatusPending {
		req.ReviewerID = "rev-0"
	}
	_, err := f.requests.Create(context.Background(), req)
	require.NoError(t, err)
}

func (f *fixture) status(t *testing.T, id string) model.Status {
	t.Helper()
	req, err := f.requests.FindByID(context.Background(), id)
	require.NoError(t, err)
	return req.Status
}

var (
	reviewer = model.Actor{ID: "rev-1"}
	operator = model.Actor{ID: "op-1"}
	allDocs  = []string{"idDocument", "photo", "authorizationLetter"}
)
