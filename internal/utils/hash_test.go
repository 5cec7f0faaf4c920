package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/authcore/internal/apperror"
)

var testArgon2Params = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestHashers() map[string]*PasswordHasher {
	return map[string]*PasswordHasher{
		AlgorithmBcrypt:   NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost),
		AlgorithmArgon2id: NewPasswordHasher(AlgorithmArgon2id, bcrypt.MinCost).WithArgon2Params(testArgon2Params),
	}
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	for name, h := range newTestHashers() {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("s3cret-pass")
			require.NoError(t, err)
			assert.NotEqual(t, "s3cret-pass", hash)

			ok, err := h.Verify("s3cret-pass", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify("s3cret-pasS", hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	for name, h := range newTestHashers() {
		t.Run(name, func(t *testing.T) {
			a, err := h.Hash("same")
			require.NoError(t, err)
			b, err := h.Hash("same")
			require.NoError(t, err)
			assert.NotEqual(t, a, b)
		})
	}
}

func TestPasswordHasher_VerifiesOtherAlgorithm(t *testing.T) {
	hashers := newTestHashers()

	argonHash, err := hashers[AlgorithmArgon2id].Hash("pw123456")
	require.NoError(t, err)

	ok, err := hashers[AlgorithmBcrypt].Verify("pw123456", argonHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_CorruptHash(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost)

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "garbage", encoded: "not-a-hash"},
		{name: "argon wrong parts", encoded: "$argon2id$v=19$m=1024"},
		{name: "argon bad version", encoded: "$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$a2V5"},
		{name: "argon bad base64", encoded: "$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify("whatever", tt.encoded)
			assert.False(t, ok)
			assert.ErrorIs(t, err, apperror.ErrCorruptCredential)
		})
	}
}

func TestNewPasswordHasher_Defaults(t *testing.T) {
	h := NewPasswordHasher("md5", 99)
	assert.Equal(t, AlgorithmBcrypt, h.algorithm)
	assert.Equal(t, bcrypt.DefaultCost, h.bcryptCost)
}
