package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/authcore/internal/apperror"
)

// Supported password hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

const argon2idPrefix = "$argon2id$"

// Argon2Params defines the memory and CPU cost factors for Argon2id.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params suits a small container with one CPU core.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher hashes new passwords with the configured algorithm and
// verifies stored hashes of either supported algorithm.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	argon      Argon2Params
}

// NewPasswordHasher returns a hasher for algorithm. Unknown algorithms fall back to bcrypt.
func NewPasswordHasher(algorithm string, bcryptCost int) *PasswordHasher {
	if algorithm != AlgorithmArgon2id {
		algorithm = AlgorithmBcrypt
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordHasher{algorithm: algorithm, bcryptCost: bcryptCost, argon: DefaultArgon2Params}
}

// WithArgon2Params overrides the argon2id cost factors.
func (h *PasswordHasher) WithArgon2Params(p Argon2Params) *PasswordHasher {
	h.argon = p
	return h
}

// Hash returns a salted one-way hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.hashArgon2id(password)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(bytes), nil
}

// Verify reports whether password matches encoded. A mismatch is not an error;
// a stored value that cannot be parsed yields apperror.ErrCorruptCredential.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if strings.HasPrefix(encoded, argon2idPrefix) {
		return verifyArgon2id(password, encoded)
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperror.Wrap(apperror.KindCorruptCredential, "stored credential is corrupt", err)
	}
}

func (h *PasswordHasher) hashArgon2id(password string) (string, error) {
	salt := make([]byte, h.argon.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.argon.Iterations, h.argon.Memory, h.argon.Parallelism, h.argon.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.argon.Memory, h.argon.Iterations, h.argon.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(password, encoded string) (bool, error) {
	p, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return false, apperror.Wrap(apperror.KindCorruptCredential, "stored credential is corrupt", err)
	}

	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// decodeArgon2id parses "$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>".
func decodeArgon2id(encoded string) (p Argon2Params, salt, key []byte, err error) {
	vals := strings.Split(encoded, "$")
	if len(vals) != 6 {
		return p, nil, nil, errors.New("hash has wrong parts")
	}

	var version int
	if _, err = fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return p, nil, nil, err
	}
	if version != argon2.Version {
		return p, nil, nil, errors.New("incompatible argon2 version")
	}

	if _, err = fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	if salt, err = base64.RawStdEncoding.DecodeString(vals[4]); err != nil {
		return p, nil, nil, err
	}
	if key, err = base64.RawStdEncoding.DecodeString(vals[5]); err != nil {
		return p, nil, nil, err
	}
	if len(key) == 0 {
		return p, nil, nil, errors.New("empty key")
	}
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
