package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/models"
)

const uniqueViolation = "23505"

// PostgresBackend stores users in Postgres through GORM. Email uniqueness
// among non-deleted users is a partial unique index created by migrations.
type PostgresBackend struct {
	db *gorm.DB
}

// NewPostgresBackend wraps an open GORM connection.
func NewPostgresBackend(db *gorm.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (p *PostgresBackend) Insert(ctx context.Context, user *models.User) error {
	err := p.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperror.Wrap(apperror.KindDuplicateEmail, "email already registered", err)
	}
	return fmt.Errorf("db error: %w", err)
}

func (p *PostgresBackend) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.db.WithContext(ctx).
		Where("email = ? AND status <> ?", email, models.StatusDeleted).
		First(&user).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

func (p *PostgresBackend) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// Save writes every column of an existing row. It never inserts.
func (p *PostgresBackend) Save(ctx context.Context, user *models.User) error {
	res := p.db.WithContext(ctx).Model(user).Select("*").Updates(user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.Wrap(apperror.KindDuplicateEmail, "email already registered", err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrUserNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

// isUniqueViolation recognizes duplicate-key failures from GORM's error
// translation, pgx and lib/pq.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
