// Package store persists user records. UserStore owns validation and password
// hashing; the Backend implementations only move records in and out of
// Postgres, Redis or memory and enforce email uniqueness atomically.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/models"
)

// Backend is the persistence contract every storage driver implements.
//
// Insert must fail with apperror.ErrDuplicateEmail when a non-deleted user
// already holds the email. Lookups fail with apperror.ErrUserNotFound.
type Backend interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// Hasher turns a plaintext password into its stored form.
type Hasher interface {
	Hash(password string) (string, error)
}

// UserStore validates and hashes before handing records to a Backend.
type UserStore struct {
	backend Backend
	hasher  Hasher
	now     func() time.Time
}

// New constructs a UserStore. A nil clock defaults to time.Now.
func New(backend Backend, hasher Hasher, now func() time.Time) *UserStore {
	if now == nil {
		now = time.Now
	}
	return &UserStore{backend: backend, hasher: hasher, now: now}
}

// Create validates input, hashes the password and inserts a pending user.
func (s *UserStore) Create(ctx context.Context, in models.NewUser) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = models.NormalizeEmail(in.Email)

	if err := models.ValidateNewUser(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		BaseModel: models.BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FullName:       in.FullName,
		Email:          in.Email,
		CredentialHash: hash,
		IsIndividual:   in.IsIndividual,
		Status:         models.StatusPending,
		IsVerified:     false,
	}
	if in.PendingOTP != nil {
		user.SetPendingOTP(*in.PendingOTP)
	}

	if err := models.ValidateUser(user); err != nil {
		return nil, err
	}
	if err := s.backend.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail looks up a non-deleted user by normalized email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.ErrUserNotFound
	}
	return s.backend.FindByEmail(ctx, email)
}

// FindByID looks up a user by id.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.backend.FindByID(ctx, id)
}

// Update persists the full record; the last write wins.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	if err := models.ValidateUser(user); err != nil {
		return err
	}
	user.UpdatedAt = s.now().UTC()
	return s.backend.Save(ctx, user)
}

// SetPassword validates and hashes password, then persists it on user.
func (s *UserStore) SetPassword(ctx context.Context, user *models.User, password string) error {
	if err := models.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.CredentialHash = hash
	return s.Update(ctx, user)
}
