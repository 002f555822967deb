package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"regportal/internal/apperror"
	"regportal/internal/model"
	"regportal/internal/registration"
	"regportal/internal/repository"
	"regportal/internal/storage"
)

// documentKey is the object key of a request's document: registrations/{id}/{type}{ext}.
func documentKey(requestID, docType, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("registrations", requestID, docType+ext)
}

func (s *registrationService) AttachDocument(ctx context.Context, actor model.Actor, in AttachInput) (*AttachResult, error) {
	if in.Body == nil {
		return nil, apperror.Validation("file is required")
	}
	docType := strings.TrimSpace(in.DocType)
	if docType == "" {
		return nil, apperror.Validation("document type is required")
	}

	req, err := loadScoped(ctx, s.requests, actor, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusPending && req.Status != model.StatusRejected {
		return nil, apperror.Validation(fmt.Sprintf("documents cannot change once a request is %s", req.Status))
	}

	types, err := s.docTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load required document types: %w", err)
	}
	if !knownType(types, docType) {
		return nil, apperror.Validation(fmt.Sprintf("unknown document type %q", docType))
	}

	key := documentKey(req.ID, docType, in.Filename)
	info, err := s.store.Put(ctx, key, in.Body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	previous, hadPrevious := req.Documents[docType]
	updated, err := s.requests.PutDocument(ctx, req.ID, docType, model.DocumentRef{URL: info.Key, UploadedAt: s.now()})
	if err != nil {
		// An object that replaced the previous file under the same key is kept:
		// the stored reference still points at it.
		if !hadPrevious || previous.URL != key {
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("registration request not found")
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.logger.Info("document attached",
		"component", "registration_service",
		"event", "document_attached",
		"request_id", updated.ID,
		"document_type", docType,
		"actor_id", actor.ID,
	)

	result := &AttachResult{Request: updated}
	if updated.Status == model.StatusRejected && s.reopen.ShouldReopen(updated) {
		reopened, err := s.engine.Reopen(ctx, updated, s.reopen, actor.ID)
		switch {
		case err == nil:
			result.Request = reopened
			result.Reopened = true
		case apperror.HasCode(err, apperror.CodeStaleState):
			// Someone else moved the request first; report its current state.
			current, ferr := s.requests.FindByID(ctx, updated.ID)
			if ferr != nil {
				return nil, ferr
			}
			result.Request = current
		default:
			return nil, err
		}
	}
	result.Missing = registration.Missing(result.Request, types)
	return result, nil
}

func (s *registrationService) OpenDocument(ctx context.Context, actor model.Actor, id, docType string) (io.ReadCloser, storage.ObjectInfo, error) {
	req, err := loadScoped(ctx, s.requests, actor, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if !req.HasDocument(docType) {
		return nil, storage.ObjectInfo{}, apperror.NotFound(fmt.Sprintf("no %s document on request", docType))
	}
	rc, info, err := s.store.Get(ctx, req.Documents[docType].URL)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, apperror.NotFound("document file not found")
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("read from storage: %w", err)
	}
	return rc, info, nil
}

func knownType(types []model.RequiredDocumentType, name string) bool {
	for _, t := range types {
		if t.Name == name {
			return true
		}
	}
	return false
}
