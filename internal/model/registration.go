package model

import (
	"errors"
	"strings"
	"time"
)

// RegistrationRequest is an employee's request for an identity credential.
// JSON names match the persisted column names of existing records.
type RegistrationRequest struct {
	ID               string                 `json:"id"`
	CompanyID        string                 `json:"company_id,omitempty"`
	EmployeeID       string                 `json:"employee_id"`
	FullName         string                 `json:"full_name"`
	NationalID       string                 `json:"national_id"`
	Status           Status                 `json:"status"`
	Documents        map[string]DocumentRef `json:"documents"`
	FlaggedDocuments []string               `json:"flagged_documents,omitempty"`
	SubmissionDate   time.Time              `json:"submission_date"`
	ReviewDate       *time.Time             `json:"review_date,omitempty"`
	ReviewerID       string                 `json:"reviewer_id,omitempty"`
	RejectionReason  string                 `json:"rejection_reason,omitempty"`
	Printed          bool                   `json:"printed"`
	PrintedAt        *time.Time             `json:"printed_at,omitempty"`
	GeneratedAt      *time.Time             `json:"generated_at,omitempty"`
	CollectedAt      *time.Time             `json:"collected_at,omitempty"`
	CollectorName    string                 `json:"collector_name,omitempty"`
}

// HasDocument reports whether a non-empty file reference is stored for key.
func (r *RegistrationRequest) HasDocument(key string) bool {
	ref, ok := r.Documents[key]
	return ok && strings.TrimSpace(ref.URL) != ""
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (r *RegistrationRequest) Clone() *RegistrationRequest {
	if r == nil {
		return nil
	}
	out := *r
	if r.Documents != nil {
		out.Documents = make(map[string]DocumentRef, len(r.Documents))
		for k, v := range r.Documents {
			out.Documents[k] = v
		}
	}
	if r.FlaggedDocuments != nil {
		out.FlaggedDocuments = append([]string(nil), r.FlaggedDocuments...)
	}
	out.ReviewDate = cloneTime(r.ReviewDate)
	out.PrintedAt = cloneTime(r.PrintedAt)
	out.GeneratedAt = cloneTime(r.GeneratedAt)
	out.CollectedAt = cloneTime(r.CollectedAt)
	return &out
}

// CheckInvariants validates the cross-field rules every stored request obeys.
func (r *RegistrationRequest) CheckInvariants() error {
	if !r.Status.Valid() {
		return errors.New("status must be one of the lifecycle states")
	}
	if r.Printed && r.Status != StatusIDPrinted && r.Status != StatusIDCollected {
		return errors.New("printed requests must be id_printed or id_collected")
	}
	if r.CollectorName != "" && r.Status != StatusIDCollected {
		return errors.New("collector name is only set on collected requests")
	}
	if r.RejectionReason != "" && r.Status != StatusRejected {
		return errors.New("rejection reason is only set on rejected requests")
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
