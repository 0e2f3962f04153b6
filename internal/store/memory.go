package store

import (
	"context"
	"sync"

	"github.com/panelkit/panelkit/internal/models"
)

// MemoryUserStore is an in-memory UserStore with the same uniqueness
// semantics as the mongo-backed one, used in tests and local development
// without a database.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByProviderSubject(_ context.Context, provider Provider, subject string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if sub := providerSubject(u, provider); sub != nil && *sub == subject {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) AttachProviderSubject(_ context.Context, userID string, provider Provider, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if providerSubject(u, provider) != nil {
		// Already linked; linking is one-way and first-writer-wins.
		return nil
	}
	switch provider {
	case ProviderGoogle:
		u.GoogleID = &subject
	case ProviderMicrosoft:
		u.MicrosoftID = &subject
	}
	return nil
}

// Count reports the number of stored records.
func (s *MemoryUserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Get returns the record by id, or nil.
func (s *MemoryUserStore) Get(userID string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return cloneUser(u)
	}
	return nil
}

func providerSubject(u *models.User, provider Provider) *string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderMicrosoft:
		return u.MicrosoftID
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.PasswordHash != nil {
		v := *u.PasswordHash
		c.PasswordHash = &v
	}
	if u.GoogleID != nil {
		v := *u.GoogleID
		c.GoogleID = &v
	}
	if u.MicrosoftID != nil {
		v := *u.MicrosoftID
		c.MicrosoftID = &v
	}
	return &c
}
