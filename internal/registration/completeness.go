// Package registration holds the review pipeline rules: the document
// completeness gate, the reopen policy and the status transition engine.
package registration

import "regportal/internal/model"

// Missing returns the required document types that have no stored file
// reference, in checklist order. Optional types never appear.
func Missing(req *model.RegistrationRequest, types []model.RequiredDocumentType) []string {
	missing := make([]string, 0)
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		if !t.Required {
			continue
		}
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		if !req.HasDocument(t.Name) {
			missing = append(missing, t.Name)
		}
	}
	return missing
}

// IsComplete reports whether every required document type is present.
func IsComplete(req *model.RegistrationRequest, types []model.RequiredDocumentType) bool {
	return len(Missing(req, types)) == 0
}
