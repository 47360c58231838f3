package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/store"
)

// UserStore implements store.UserStore in memory.
type UserStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User

	// Err, when set, is returned by every operation.
	Err error
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

// Create implements store.UserStore.
func (m *UserStore) Create(ctx context.Context, user *domain.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return store.ErrDuplicate
	}
	u := *user
	m.byID[u.ID] = &u
	m.byEmail[u.Email] = &u
	return nil
}

// GetByID implements store.UserStore.
func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

// GetByEmail implements store.UserStore.
func (m *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}
