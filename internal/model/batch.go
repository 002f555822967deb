package model

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ItemError describes why one batch item failed.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchItem is the outcome for a single request in a batch.
type BatchItem struct {
	RequestID string     `json:"request_id"`
	Outcome   Outcome    `json:"outcome"`
	Error     *ItemError `json:"error,omitempty"`
}

// BatchResult lists every requested item, in request order.
type BatchResult struct {
	BatchID     string      `json:"batch_id"`
	Items       []BatchItem `json:"items"`
	ArtifactKey string      `json:"artifact_key,omitempty"`
	ArtifactURL string      `json:"artifact_url,omitempty"`
}

// Succeeded returns the ids of items that completed.
func (b *BatchResult) Succeeded() []string {
	return b.idsWith(OutcomeSuccess)
}

// Failed returns the ids of items that did not complete.
func (b *BatchResult) Failed() []string {
	return b.idsWith(OutcomeFailure)
}

func (b *BatchResult) idsWith(o Outcome) []string {
	out := make([]string, 0, len(b.Items))
	for _, it := range b.Items {
		if it.Outcome == o {
			out = append(out, it.RequestID)
		}
	}
	return out
}

// AllSucceeded is true only when there is at least one item and none failed.
func (b *BatchResult) AllSucceeded() bool {
	return len(b.Items) > 0 && len(b.Failed()) == 0
}

// NoneSucceeded is true when no item completed.
func (b *BatchResult) NoneSucceeded() bool {
	return len(b.Succeeded()) == 0
}
