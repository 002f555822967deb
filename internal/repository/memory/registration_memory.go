// Package memory provides in-process repositories for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"regportal/internal/model"
	"regportal/internal/repository"
)

// HistoryEntry is one applied status change.
type HistoryEntry struct {
	RequestID string
	From      model.Status
	To        model.Status
	ActorID   string
	ChangedAt time.Time
}

// RegistrationStore is a mutex-guarded RegistrationRepository.
type RegistrationStore struct {
	mu      sync.Mutex
	rows    map[string]*model.RegistrationRequest
	history []HistoryEntry
}

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{rows: make(map[string]*model.RegistrationRequest)}
}

var _ repository.RegistrationRepository = (*RegistrationStore)(nil)

func (s *RegistrationStore) Create(_ context.Context, req *model.RegistrationRequest) (*model.RegistrationRequest, error) {
	if err := req.CheckInvariants(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[req.ID]; exists {
		return nil, fmt.Errorf("registration request %s already exists", req.ID)
	}
	row := req.Clone()
	if row.Documents == nil {
		row.Documents = map[string]model.DocumentRef{}
	}
	s.rows[row.ID] = row
	return row.Clone(), nil
}

func (s *RegistrationStore) FindByID(_ context.Context, id string) (*model.RegistrationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *RegistrationStore) List(_ context.Context, f repository.RegistrationFilter) (*repository.PageResult[model.RegistrationRequest], error) {
	s.mu.Lock()
	matched := make([]model.RegistrationRequest, 0, len(s.rows))
	for _, row := range s.rows {
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		if f.CompanyID != "" && row.CompanyID != f.CompanyID {
			continue
		}
		matched = append(matched, *row.Clone())
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmissionDate.Equal(matched[j].SubmissionDate) {
			return matched[i].SubmissionDate.After(matched[j].SubmissionDate)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := min(max(f.Page.Offset, 0), total)
	end := total
	if f.Page.Limit > 0 {
		end = min(start+f.Page.Limit, total)
	}
	return &repository.PageResult[model.RegistrationRequest]{
		Items: matched[start:end],
		Total: total,
	}, nil
}

func (s *RegistrationStore) PutDocument(_ context.Context, id, docType string, ref model.DocumentRef) (*model.RegistrationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if row.Documents == nil {
		row.Documents = map[string]model.DocumentRef{}
	}
	row.Documents[docType] = ref
	return row.Clone(), nil
}

func (s *RegistrationStore) UpdateStatus(_ context.Context, change repository.StatusChange) (*model.RegistrationRequest, error) {
	if !change.To.Valid() {
		return nil, fmt.Errorf("refusing to store invalid status %q", change.To)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[change.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if row.Status != change.From {
		return nil, &repository.StaleError{ID: change.ID, Expected: change.From, Current: row.Status}
	}
	next := row.Clone()
	change.ApplyTo(next)
	if err := next.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("status change violates invariants: %w", err)
	}
	s.rows[change.ID] = next
	s.history = append(s.history, HistoryEntry{
		RequestID: change.ID,
		From:      change.From,
		To:        change.To,
		ActorID:   change.ActorID,
		ChangedAt: change.At,
	})
	return next.Clone(), nil
}

// History returns the applied changes for one request, oldest first.
func (s *RegistrationStore) History(id string) []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, 0)
	for _, h := range s.history {
		if h.RequestID == id {
			out = append(out, h)
		}
	}
	return out
}
