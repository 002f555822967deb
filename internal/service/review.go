package service

import (
	"context"
	"fmt"
	"strings"

	"regportal/internal/apperror"
	"regportal/internal/model"
	"regportal/internal/registration"
)

func (s *registrationService) Review(ctx context.Context, actor model.Actor, in ReviewInput) (*model.RegistrationRequest, error) {
	decision := strings.ToLower(strings.TrimSpace(in.Decision))
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperror.Validation(fmt.Sprintf("decision must be %q or %q", DecisionApprove, DecisionReject))
	}

	req, err := loadScoped(ctx, s.requests, actor, in.RequestID)
	if err != nil {
		return nil, err
	}
	// Decisions are taken on a pending request unless the caller says otherwise.
	observed := model.StatusPending
	if in.ObservedStatus != "" {
		if observed, err = model.ParseStatus(in.ObservedStatus); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}
	if observed != req.Status {
		return nil, apperror.StaleState(observed, req.Status)
	}

	types, err := s.docTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load required document types: %w", err)
	}

	if decision == DecisionApprove {
		return s.engine.Approve(ctx, req, types, actor.ID)
	}

	flagged, err := flaggedDocuments(req, types, in.FlaggedDocuments)
	if err != nil {
		return nil, err
	}
	return s.engine.Reject(ctx, req, actor.ID, in.Reason, flagged)
}

// flaggedDocuments validates the reviewer's flags against the checklist. With
// no flags given, the missing required types are flagged.
func flaggedDocuments(req *model.RegistrationRequest, types []model.RequiredDocumentType, given []string) ([]string, error) {
	if len(given) == 0 {
		return registration.Missing(req, types), nil
	}
	known := make(map[string]struct{}, len(types))
	for _, t := range types {
		known[t.Name] = struct{}{}
	}
	out := make([]string, 0, len(given))
	seen := make(map[string]struct{}, len(given))
	for _, name := range given {
		name = strings.TrimSpace(name)
		if _, ok := known[name]; !ok {
			return nil, apperror.Validation(fmt.Sprintf("unknown document type %q", name))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}
