package model

import "time"

// DocumentRef points at an uploaded file in object storage.
// URL holds the storage key; download links are presigned on demand.
type DocumentRef struct {
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RequiredDocumentType is one entry of the settings-owned document checklist.
// Name doubles as the key in RegistrationRequest.Documents.
type RequiredDocumentType struct {
	Name         string `json:"name"`
	Required     bool   `json:"required"`
	Instructions string `json:"instructions,omitempty"`
}
