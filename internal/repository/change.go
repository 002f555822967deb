package repository

import "regportal/internal/model"

// ApplyTo copies the change onto r. It does not check From; callers that
// need the guard compare statuses first.
func (c StatusChange) ApplyTo(r *model.RegistrationRequest) {
	r.Status = c.To
	if c.ReviewerID != nil {
		r.ReviewerID = *c.ReviewerID
	}
	if c.ReviewDate != nil {
		t := *c.ReviewDate
		r.ReviewDate = &t
	}
	if c.RejectionReason != nil {
		r.RejectionReason = *c.RejectionReason
	}
	if c.FlaggedDocuments != nil {
		r.FlaggedDocuments = append([]string(nil), (*c.FlaggedDocuments)...)
	}
	if c.Printed != nil {
		r.Printed = *c.Printed
	}
	if c.PrintedAt != nil {
		t := *c.PrintedAt
		r.PrintedAt = &t
	}
	if c.GeneratedAt != nil {
		t := *c.GeneratedAt
		r.GeneratedAt = &t
	}
	if c.CollectedAt != nil {
		t := *c.CollectedAt
		r.CollectedAt = &t
	}
	if c.CollectorName != nil {
		r.CollectorName = *c.CollectorName
	}
}
