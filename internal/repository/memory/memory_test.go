package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regportal/internal/model"
	"regportal/internal/repository"
)

func seedPending(t *testing.T, s *RegistrationStore, id string) {
	t.Helper()
	_, err := s.Create(context.Background(), &model.RegistrationRequest{
		ID:             id,
		EmployeeID:     "EMP-" + id,
		FullName:       "Test Person",
		Status:         model.StatusPending,
		SubmissionDate: time.Now(),
	})
	require.NoError(t, err)
}

func TestRegistrationStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewRegistrationStore()
	seedPending(t, s, "REG-1")

	reviewer := "rev-1"
	out, err := s.UpdateStatus(ctx, repository.StatusChange{
		ID: "REG-1", From: model.StatusPending, To: model.StatusApproved,
		ActorID: reviewer, At: time.Now(), ReviewerID: &reviewer,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, out.Status)
	assert.Equal(t, "rev-1", out.ReviewerID)

	t.Run("stale", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, repository.StatusChange{
			ID: "REG-1", From: model.StatusPending, To: model.StatusRejected,
		})
		var stale *repository.StaleError
		require.True(t, errors.As(err, &stale))
		assert.ErrorIs(t, err, repository.ErrStale)
		assert.Equal(t, model.StatusApproved, stale.Current)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, repository.StatusChange{ID: "nope", From: model.StatusPending, To: model.StatusApproved})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("invariant violation is refused", func(t *testing.T) {
		printed := true
		_, err := s.UpdateStatus(ctx, repository.StatusChange{
			ID: "REG-1", From: model.StatusApproved, To: model.StatusIDGenerated, Printed: &printed,
		})
		assert.Error(t, err)
		got, _ := s.FindByID(ctx, "REG-1")
		assert.Equal(t, model.StatusApproved, got.Status)
	})

	assert.Len(t, s.History("REG-1"), 1)
}

func TestRegistrationStore_ConcurrentWritersHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewRegistrationStore()
	seedPending(t, s, "REG-2")

	targets := []model.Status{model.StatusApproved, model.StatusRejected, model.StatusApproved, model.StatusRejected}
	var wg sync.WaitGroup
	errs := make([]error, len(targets))
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to model.Status) {
			defer wg.Done()
			change := repository.StatusChange{ID: "REG-2", From: model.StatusPending, To: to}
			if to == model.StatusRejected {
				reason := "blurry"
				change.RejectionReason = &reason
			}
			_, errs[i] = s.UpdateStatus(ctx, change)
		}(i, to)
	}
	wg.Wait()

	winners := 0
	var winner model.Status
	for i, err := range errs {
		if err == nil {
			winners++
			winner = targets[i]
			continue
		}
		assert.ErrorIs(t, err, repository.ErrStale)
	}
	assert.Equal(t, 1, winners)
	got, err := s.FindByID(ctx, "REG-2")
	require.NoError(t, err)
	assert.Equal(t, winner, got.Status)
}

func TestRegistrationStore_ListAndDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewRegistrationStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, &model.RegistrationRequest{
			ID: id, CompanyID: "acme", Status: model.StatusPending, SubmissionDate: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	res, err := s.List(ctx, repository.RegistrationFilter{Page: repository.PageQuery{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "c", res.Items[0].ID)

	res, err = s.List(ctx, repository.RegistrationFilter{Status: model.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	out, err := s.PutDocument(ctx, "a", "photo", model.DocumentRef{URL: "registrations/a/photo.jpg", UploadedAt: base})
	require.NoError(t, err)
	assert.True(t, out.HasDocument("photo"))

	_, err = s.PutDocument(ctx, "missing", "photo", model.DocumentRef{URL: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredentialStore_CreateIfAbsentKeepsFirst(t *testing.T) {
	ctx := context.Background()
	s := NewCredentialStore()
	first := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	c1, err := s.CreateIfAbsent(ctx, &model.Credential{EmployeeID: "E1", IDNumber: "ID-1", IssueDate: first, Status: model.CredentialPending})
	require.NoError(t, err)
	c2, err := s.CreateIfAbsent(ctx, &model.Credential{EmployeeID: "E1", IDNumber: "ID-2", IssueDate: first.AddDate(0, 1, 0)})
	require.NoError(t, err)

	assert.Equal(t, c1.IDNumber, c2.IDNumber)
	assert.Equal(t, first, c2.IssueDate)

	require.NoError(t, s.Activate(ctx, "E1"))
	got, err := s.FindByEmployeeID(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, model.CredentialActive, got.Status)
	assert.ErrorIs(t, s.Activate(ctx, "E9"), repository.ErrNotFound)
}

func TestRequiredDocumentStore_Order(t *testing.T) {
	ctx := context.Background()
	s := NewRequiredDocumentStore(
		model.RequiredDocumentType{Name: "idDocument", Required: true},
		model.RequiredDocumentType{Name: "photo", Required: true},
	)
	require.NoError(t, s.Upsert(ctx, model.RequiredDocumentType{Name: "authorizationLetter", Required: true}, 2))

	types, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "idDocument", types[0].Name)
	assert.Equal(t, "authorizationLetter", types[2].Name)
}
