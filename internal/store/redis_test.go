package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/models"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBackend(rdb, "test:"), mr
}

func TestRedisBackend_InsertAndFind(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	u := sampleUser()
	u.SetPendingOTP(models.OTP{Code: "000123", ExpiresAt: fixedNow.Add(models.OTPWindow)})
	require.NoError(t, backend.Insert(ctx, u))

	assert.True(t, mr.Exists("test:user:"+u.ID.String()))
	idx, err := mr.Get("test:user:email:ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), idx)

	got, err := backend.FindByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.CredentialHash, got.CredentialHash)
	otp, ok := got.PendingOTP()
	require.True(t, ok)
	assert.Equal(t, "000123", otp.Code)

	byID, err := backend.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.FullName)
}

func TestRedisBackend_InsertDuplicate(t *testing.T) {
	backend, _ := newRedisBackend(t)
	ctx := context.Background()

	first := sampleUser()
	require.NoError(t, backend.Insert(ctx, first))

	second := sampleUser()
	second.FullName = "Imposter"
	assert.ErrorIs(t, backend.Insert(ctx, second), apperror.ErrDuplicateEmail)

	got, err := backend.FindByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = backend.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestRedisBackend_NotFound(t *testing.T) {
	backend, _ := newRedisBackend(t)
	ctx := context.Background()

	_, err := backend.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)

	_, err = backend.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestRedisBackend_Save(t *testing.T) {
	backend, _ := newRedisBackend(t)
	ctx := context.Background()

	u := sampleUser()
	require.NoError(t, backend.Insert(ctx, u))

	u.MarkVerified()
	require.NoError(t, backend.Save(ctx, u))

	got, err := backend.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, models.StatusActive, got.Status)
	_, pending := got.PendingOTP()
	assert.False(t, pending)
}

func TestRedisBackend_SaveUnknownUser(t *testing.T) {
	backend, _ := newRedisBackend(t)

	assert.ErrorIs(t, backend.Save(context.Background(), sampleUser()), apperror.ErrUserNotFound)
}

func TestRedisBackend_DeletedUserReleasesEmail(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	u := sampleUser()
	require.NoError(t, backend.Insert(ctx, u))

	u.Status = models.StatusDeleted
	require.NoError(t, backend.Save(ctx, u))
	assert.False(t, mr.Exists("test:user:email:ada@x.com"))

	_, err := backend.FindByEmail(ctx, "ada@x.com")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)

	assert.NoError(t, backend.Insert(ctx, sampleUser()))
}

func TestRedisBackend_ConnectionError(t *testing.T) {
	backend, mr := newRedisBackend(t)
	mr.Close()

	err := backend.Insert(context.Background(), sampleUser())
	assert.ErrorContains(t, err, "redis error")
}

func TestUserStore_OverRedis(t *testing.T) {
	backend, _ := newRedisBackend(t)
	s, _ := newMemoryStore(t)
	s.backend = backend
	ctx := context.Background()

	_, err := s.Create(ctx, models.NewUser{FullName: "Ada", Email: "Ada@X.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Create(ctx, models.NewUser{FullName: "Ada", Email: "ada@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}
