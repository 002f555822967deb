package registration

import (
	"fmt"
	"time"

	"regportal/internal/model"
)

// ReopenPolicy decides when re-uploads move a rejected request back to pending.
type ReopenPolicy string

const (
	// ReopenAnyUpload reopens on any document uploaded after the rejection.
	ReopenAnyUpload ReopenPolicy = "any_upload"
	// ReopenAllFlagged reopens once every flagged document has been replaced.
	ReopenAllFlagged ReopenPolicy = "all_flagged"
)

func ParseReopenPolicy(s string) (ReopenPolicy, error) {
	switch p := ReopenPolicy(s); p {
	case ReopenAnyUpload, ReopenAllFlagged:
		return p, nil
	default:
		return "", fmt.Errorf("unknown reopen policy %q", s)
	}
}

// ShouldReopen evaluates the policy against a rejected request. Uploads count
// only if they are newer than the review date. With no flagged documents,
// all_flagged behaves like any_upload.
func (p ReopenPolicy) ShouldReopen(req *model.RegistrationRequest) bool {
	if req.Status != model.StatusRejected {
		return false
	}
	if p == ReopenAllFlagged && len(req.FlaggedDocuments) > 0 {
		for _, name := range req.FlaggedDocuments {
			if !replacedSince(req, name, req.ReviewDate) {
				return false
			}
		}
		return true
	}
	for name := range req.Documents {
		if replacedSince(req, name, req.ReviewDate) {
			return true
		}
	}
	return false
}

func replacedSince(req *model.RegistrationRequest, name string, since *time.Time) bool {
	if !req.HasDocument(name) {
		return false
	}
	if since == nil {
		return true
	}
	return req.Documents[name].UploadedAt.After(*since)
}
