package memory

import (
	"context"
	"sort"
	"sync"

	"regportal/internal/model"
	"regportal/internal/repository"
)

type RequiredDocumentStore struct {
	mu       sync.Mutex
	types    map[string]model.RequiredDocumentType
	position map[string]int
}

// NewRequiredDocumentStore seeds the store with types in the given order.
func NewRequiredDocumentStore(types ...model.RequiredDocumentType) *RequiredDocumentStore {
	s := &RequiredDocumentStore{
		types:    make(map[string]model.RequiredDocumentType),
		position: make(map[string]int),
	}
	for i, t := range types {
		s.types[t.Name] = t
		s.position[t.Name] = i
	}
	return s
}

var _ repository.RequiredDocumentRepository = (*RequiredDocumentStore)(nil)

func (s *RequiredDocumentStore) List(_ context.Context) ([]model.RequiredDocumentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RequiredDocumentType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := s.position[out[i].Name], s.position[out[j].Name]
		if pi != pj {
			return pi < pj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *RequiredDocumentStore) Upsert(_ context.Context, t model.RequiredDocumentType, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[t.Name] = t
	s.position[t.Name] = position
	return nil
}
