package memory

import (
	"context"
	"sync"

	"regportal/internal/model"
	"regportal/internal/repository"
)

type CredentialStore struct {
	mu   sync.Mutex
	rows map[string]model.Credential
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{rows: make(map[string]model.Credential)}
}

var _ repository.CredentialRepository = (*CredentialStore)(nil)

func (s *CredentialStore) FindByEmployeeID(_ context.Context, employeeID string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[employeeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *CredentialStore) CreateIfAbsent(_ context.Context, c *model.Credential) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rows[c.EmployeeID]; ok {
		return &existing, nil
	}
	s.rows[c.EmployeeID] = *c
	stored := *c
	return &stored, nil
}

func (s *CredentialStore) Activate(_ context.Context, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[employeeID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = model.CredentialActive
	s.rows[employeeID] = c
	return nil
}
