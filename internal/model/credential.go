package model

import "time"

type CredentialStatus string

const (
	CredentialPending CredentialStatus = "pending"
	CredentialActive  CredentialStatus = "active"
)

// Credential is the digital ID tied 1:1 to an approved request through EmployeeID.
// IssueDate is fixed at the first successful generation.
type Credential struct {
	EmployeeID string           `json:"employee_id"`
	RequestID  string           `json:"request_id"`
	IDNumber   string           `json:"id_number"`
	IssueDate  time.Time        `json:"issue_date"`
	ExpiryDate time.Time        `json:"expiry_date"`
	Status     CredentialStatus `json:"status"`
}
