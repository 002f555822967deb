// Package seed bootstraps required document types and demo registration
// requests. It runs from cmd/seed, or at startup of the in-memory store
// driver, and is never called by the pipeline itself.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"regportal/internal/model"
	"regportal/internal/repository"
)

// RequiredDocumentTypes is the default checklist, in display order.
func RequiredDocumentTypes() []model.RequiredDocumentType {
	return []model.RequiredDocumentType{
		{Name: "idDocument", Required: true, Instructions: "National ID card or passport, both sides."},
		{Name: "photo", Required: true, Instructions: "Recent passport-style photo on a plain background."},
		{Name: "authorizationLetter", Required: true, Instructions: "Signed letter from the employing company."},
		{Name: "referenceLetter", Required: false},
	}
}

// DemoRequests returns requests covering the review states, stamped relative to now.
func DemoRequests(now time.Time) []*model.RegistrationRequest {
	doc := func(id, name string) model.DocumentRef {
		return model.DocumentRef{URL: fmt.Sprintf("registrations/%s/%s.pdf", id, name), UploadedAt: now.Add(-48 * time.Hour)}
	}
	reviewed := now.Add(-24 * time.Hour)
	return []*model.RegistrationRequest{
		{
			ID:         "REG-1000",
			CompanyID:  "acme",
			EmployeeID: "EMP-1000",
			FullName:   "Amara Okafor",
			Status:     model.StatusPending,
			Documents: map[string]model.DocumentRef{
				"idDocument": doc("REG-1000", "idDocument"),
				"photo":      doc("REG-1000", "photo"),
			},
			SubmissionDate: now.Add(-72 * time.Hour),
		},
		{
			ID:         "REG-1001",
			CompanyID:  "acme",
			EmployeeID: "EMP-1001",
			FullName:   "Jonas Lindqvist",
			NationalID: "SE-19840312",
			Status:     model.StatusApproved,
			Documents: map[string]model.DocumentRef{
				"idDocument":          doc("REG-1001", "idDocument"),
				"photo":               doc("REG-1001", "photo"),
				"authorizationLetter": doc("REG-1001", "authorizationLetter"),
			},
			SubmissionDate: now.Add(-96 * time.Hour),
			ReviewDate:     &reviewed,
			ReviewerID:     "seed",
		},
		{
			ID:         "REG-1002",
			CompanyID:  "globex",
			EmployeeID: "EMP-1002",
			FullName:   "Priya Raman",
			Status:     model.StatusRejected,
			Documents: map[string]model.DocumentRef{
				"idDocument":          doc("REG-1002", "idDocument"),
				"photo":               doc("REG-1002", "photo"),
				"authorizationLetter": doc("REG-1002", "authorizationLetter"),
			},
			FlaggedDocuments: []string{"photo"},
			SubmissionDate:   now.Add(-120 * time.Hour),
			ReviewDate:       &reviewed,
			ReviewerID:       "seed",
			RejectionReason:  "photo is blurred",
		},
	}
}

// Run upserts the checklist and creates the demo requests that do not exist yet.
func Run(ctx context.Context, types repository.RequiredDocumentRepository, requests repository.RegistrationRepository, logger *slog.Logger, now time.Time) error {
	for i, t := range RequiredDocumentTypes() {
		if err := types.Upsert(ctx, t, i); err != nil {
			return fmt.Errorf("upsert document type %s: %w", t.Name, err)
		}
	}

	created := 0
	for _, req := range DemoRequests(now) {
		_, err := requests.FindByID(ctx, req.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("look up %s: %w", req.ID, err)
		}
		if _, err := requests.Create(ctx, req); err != nil {
			return fmt.Errorf("create %s: %w", req.ID, err)
		}
		created++
	}

	logger.Info("seed finished",
		"component", "seed",
		"event", "seed_finished",
		"document_types", len(RequiredDocumentTypes()),
		"requests_created", created,
	)
	return nil
}
