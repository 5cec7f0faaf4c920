package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/authcore/internal/apperror"
)

// Token purposes carried in the "purpose" claim.
const (
	PurposeSession       = "session"
	PurposeMagicLink     = "magic_link"
	PurposePasswordReset = "password_reset"
)

// Claims is the claim set embedded in every signed token. UserID and Email are
// optional; a token is bound to whichever of them is set.
type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 tokens with a process-wide secret.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSigner constructs a TokenSigner. A nil clock defaults to time.Now.
func NewTokenSigner(secret string, now func() time.Time) *TokenSigner {
	if now == nil {
		now = time.Now
	}
	return &TokenSigner{secret: []byte(secret), now: now}
}

// Issue signs claims with issue time now and expiry now+ttl.
func (s *TokenSigner) Issue(claims Claims, ttl time.Duration) (string, error) {
	issuedAt := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	if claims.Subject == "" {
		claims.Subject = claims.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded claims.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Wrap(apperror.KindExpiredToken, "token expired", err)
		}
		return nil, apperror.Wrap(apperror.KindInvalidToken, "invalid token", err)
	}
	if !token.Valid {
		return nil, apperror.ErrInvalidToken
	}

	return claims, nil
}
