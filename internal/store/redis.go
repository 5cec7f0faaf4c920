package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/models"
)

// RedisBackend stores each user as a JSON document under user:<id> and keeps
// an email index under user:email:<email>. SETNX on the index key is what
// makes signup atomic with respect to email uniqueness.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBackend wraps a client; prefix namespaces every key.
func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

// redisUser is the stored document. Unlike models.User it keeps the hash.
type redisUser struct {
	ID             uuid.UUID         `json:"id"`
	FullName       string            `json:"fullName"`
	Email          string            `json:"email"`
	CredentialHash string            `json:"credentialHash"`
	IsIndividual   bool              `json:"isIndividual"`
	Status         models.UserStatus `json:"status"`
	IsVerified     bool              `json:"isVerified"`
	OTPCode        *string           `json:"otpCode,omitempty"`
	OTPExpiresAt   *time.Time        `json:"otpExpiresAt,omitempty"`
	LastLoginAt    *time.Time        `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func toRedisUser(u *models.User) redisUser {
	return redisUser{
		ID:             u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		CredentialHash: u.CredentialHash,
		IsIndividual:   u.IsIndividual,
		Status:         u.Status,
		IsVerified:     u.IsVerified,
		OTPCode:        u.OTPCode,
		OTPExpiresAt:   u.OTPExpiresAt,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (r redisUser) toModel() *models.User {
	return &models.User{
		BaseModel:      models.BaseModel{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		FullName:       r.FullName,
		Email:          r.Email,
		CredentialHash: r.CredentialHash,
		IsIndividual:   r.IsIndividual,
		Status:         r.Status,
		IsVerified:     r.IsVerified,
		OTPCode:        r.OTPCode,
		OTPExpiresAt:   r.OTPExpiresAt,
		LastLoginAt:    r.LastLoginAt,
	}
}

func (b *RedisBackend) userKey(id uuid.UUID) string {
	return b.prefix + "user:" + id.String()
}

func (b *RedisBackend) emailKey(email string) string {
	return b.prefix + "user:email:" + email
}

func (b *RedisBackend) Insert(ctx context.Context, user *models.User) error {
	doc, err := json.Marshal(toRedisUser(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	claimed, err := b.rdb.SetNX(ctx, b.emailKey(user.Email), user.ID.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !claimed {
		return apperror.ErrDuplicateEmail
	}

	if err := b.rdb.Set(ctx, b.userKey(user.ID), doc, 0).Err(); err != nil {
		// release the email so a retry can succeed
		_ = b.rdb.Del(ctx, b.emailKey(user.Email)).Err()
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (b *RedisBackend) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	idStr, err := b.rdb.Get(ctx, b.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt email index for %q: %w", email, err)
	}
	return b.FindByID(ctx, id)
}

func (b *RedisBackend) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	raw, err := b.rdb.Get(ctx, b.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var doc redisUser
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return doc.toModel(), nil
}

func (b *RedisBackend) Save(ctx context.Context, user *models.User) error {
	doc, err := json.Marshal(toRedisUser(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	updated, err := b.rdb.SetXX(ctx, b.userKey(user.ID), doc, 0).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !updated {
		return apperror.ErrUserNotFound
	}

	if user.Status == models.StatusDeleted {
		owner, err := b.rdb.Get(ctx, b.emailKey(user.Email)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis error: %w", err)
		}
		if owner == user.ID.String() {
			if err := b.rdb.Del(ctx, b.emailKey(user.Email)).Err(); err != nil {
				return fmt.Errorf("redis error: %w", err)
			}
		}
	}
	return nil
}
