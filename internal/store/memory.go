package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/models"
)

// MemoryBackend keeps users in process memory. Used for local runs and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MemoryBackend) Insert(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[user.Email]; taken {
		return apperror.ErrDuplicateEmail
	}
	m.byID[user.ID] = user.Clone()
	if user.Status != models.StatusDeleted {
		m.byEmail[user.Email] = user.ID
	}
	return nil
}

func (m *MemoryBackend) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryBackend) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (m *MemoryBackend) Save(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[user.ID]; !ok {
		return apperror.ErrUserNotFound
	}
	m.byID[user.ID] = user.Clone()
	if user.Status == models.StatusDeleted {
		if m.byEmail[user.Email] == user.ID {
			delete(m.byEmail, user.Email)
		}
	}
	return nil
}
