package model

// Actor is the authenticated operator performing a pipeline action.
// An empty CompanyID means the actor is not scoped to one company.
type Actor struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id,omitempty"`
}
