package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/logging"
	"github.com/example/authcore/internal/models"
	"github.com/example/authcore/internal/notifier"
	"github.com/example/authcore/internal/utils"
)

// UserStore is the persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, in models.NewUser) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetPassword(ctx context.Context, user *models.User, password string) error
}

// CredentialHasher hashes and verifies passwords.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// TokenSigner issues and verifies signed bearer tokens.
type TokenSigner interface {
	Issue(claims utils.Claims, ttl time.Duration) (string, error)
	Verify(token string) (*utils.Claims, error)
}

// CodeGenerator produces one-time passcodes.
type CodeGenerator interface {
	Generate() (string, error)
}

// AuthConfig carries token lifetimes and the magic-link landing URL.
type AuthConfig struct {
	SessionTTL       time.Duration
	MagicLinkTTL     time.Duration
	MagicSessionTTL  time.Duration
	ResetTokenTTL    time.Duration
	MagicLinkBaseURL string
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.MagicLinkTTL <= 0 {
		c.MagicLinkTTL = 15 * time.Minute
	}
	if c.MagicSessionTTL <= 0 {
		c.MagicSessionTTL = 7 * 24 * time.Hour
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = time.Hour
	}
	return c
}

// AuthDeps are the collaborators of AuthService.
type AuthDeps struct {
	Users    UserStore
	Hasher   CredentialHasher
	Tokens   TokenSigner
	OTP      CodeGenerator
	Notifier notifier.Notifier
	Logger   logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// AuthService implements signup, login, email verification by OTP or magic
// link, and password reset.
type AuthService struct {
	users    UserStore
	hasher   CredentialHasher
	tokens   TokenSigner
	otp      CodeGenerator
	notifier notifier.Notifier
	log      logging.Logger
	now      func() time.Time
	cfg      AuthConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps AuthDeps, cfg AuthConfig) *AuthService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &AuthService{
		users:    deps.Users,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		otp:      deps.OTP,
		notifier: deps.Notifier,
		log:      log,
		now:      now,
		cfg:      cfg.withDefaults(),
	}
}

// SignupInput is the signup request. IsIndividual defaults to true when nil.
type SignupInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	IsIndividual    *bool
}

// AuthResult is returned by flows that sign the user in.
type AuthResult struct {
	User  models.PublicUser
	Token string
}

// Signup creates a pending account, emails it an OTP and returns a session
// token. A failed email does not remove the account; the user can resend.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, apperror.ErrPasswordMismatch
	}

	pending, err := s.newOTP()
	if err != nil {
		return nil, err
	}

	isIndividual := true
	if in.IsIndividual != nil {
		isIndividual = *in.IsIndividual
	}

	user, err := s.users.Create(ctx, models.NewUser{
		FullName:     in.FullName,
		Email:        in.Email,
		Password:     in.Password,
		IsIndividual: isIndividual,
		PendingOTP:   &pending,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user signed up", "user_id", user.ID)

	if err := s.sendOTP(ctx, user, pending); err != nil {
		return nil, err
	}

	token, err := s.issueSession(utils.Claims{UserID: user.ID.String()}, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Public(), Token: token}, nil
}

// VerifyOTP consumes the user's pending code and activates the account.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	pending, ok := user.PendingOTP()
	if !ok || pending.Expired(s.now()) {
		return apperror.ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(code)) != 1 {
		return apperror.ErrOTPMismatch
	}

	user.MarkVerified()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

// ResendOTP replaces any outstanding code with a fresh one and emails it.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	pending, err := s.newOTP()
	if err != nil {
		return err
	}
	user.SetPendingOTP(pending)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.sendOTP(ctx, user, pending)
}

// Login checks credentials and returns a session token. Unknown email and
// wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperror.ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			s.burnVerify(password)
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.CredentialHash)
	if err != nil {
		if errors.Is(err, apperror.ErrCorruptCredential) {
			s.log.Error(ctx, "stored credential is corrupt", "user_id", user.ID, "error", err)
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInvalidCredentials
	}

	now := s.now().UTC()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueSession(utils.Claims{UserID: user.ID.String()}, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{User: user.Public(), Token: token}, nil
}

// ForgotPassword returns a short-lived token that authorizes ResetPassword.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.Issue(utils.Claims{
		UserID:  user.ID.String(),
		Purpose: utils.PurposePasswordReset,
	}, s.cfg.ResetTokenTTL)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to issue token", err)
	}
	return token, nil
}

// ResetPasswordInput is the reset-password request.
type ResetPasswordInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// ResetPassword stores a new password for the user bound to a reset token.
// Tokens stay valid until they expire.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	claims, err := s.verify(in.Token, utils.PurposePasswordReset)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return apperror.ErrInvalidToken
	}
	if in.Password != in.ConfirmPassword {
		return apperror.ErrPasswordMismatch
	}

	user, err := s.findLive(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, user, in.Password); err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// SendMagicLink emails a sign-in link bound to email. The address does not
// have to belong to a registered user.
func (s *AuthService) SendMagicLink(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if err := models.ValidateEmail(email); err != nil {
		return err
	}

	token, err := s.tokens.Issue(utils.Claims{
		Email:   email,
		Purpose: utils.PurposeMagicLink,
	}, s.cfg.MagicLinkTTL)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to issue token", err)
	}

	link, err := buildMagicLinkURL(s.cfg.MagicLinkBaseURL, token)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to build magic link", err)
	}
	msg, err := notifier.MagicLinkMessage(email, link, s.cfg.MagicLinkTTL)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to render email", err)
	}
	return s.deliver(ctx, msg)
}

// VerifyMagicLink exchanges a magic-link token for a long-lived session
// token bound to the same email. Links can be followed more than once
// until they expire.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (string, error) {
	claims, err := s.verify(token, utils.PurposeMagicLink)
	if err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", apperror.ErrInvalidToken
	}

	session, err := s.issueSession(utils.Claims{Email: claims.Email}, s.cfg.MagicSessionTTL)
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "magic link verified")
	return session, nil
}

// Authenticate verifies a session token.
func (s *AuthService) Authenticate(token string) (*utils.Claims, error) {
	return s.verify(token, utils.PurposeSession)
}

// CurrentUser resolves the account behind verified session claims.
func (s *AuthService) CurrentUser(ctx context.Context, claims *utils.Claims) (*models.PublicUser, error) {
	if claims == nil || claims.Purpose != utils.PurposeSession {
		return nil, apperror.ErrInvalidToken
	}

	var (
		user *models.User
		err  error
	)
	switch {
	case claims.UserID != "":
		id, perr := uuid.Parse(claims.UserID)
		if perr != nil {
			return nil, apperror.ErrInvalidToken
		}
		user, err = s.findLive(ctx, id)
	case claims.Email != "":
		user, err = s.users.FindByEmail(ctx, claims.Email)
	default:
		return nil, apperror.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) findLive(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == models.StatusDeleted {
		return nil, apperror.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) verify(token, purpose string) (*utils.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.ErrInvalidToken
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, apperror.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issueSession(claims utils.Claims, ttl time.Duration) (string, error) {
	claims.Purpose = utils.PurposeSession
	token, err := s.tokens.Issue(claims, ttl)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to issue token", err)
	}
	return token, nil
}

func (s *AuthService) newOTP() (models.OTP, error) {
	code, err := s.otp.Generate()
	if err != nil {
		return models.OTP{}, apperror.Wrap(apperror.KindInternal, "failed to generate code", err)
	}
	return models.OTP{Code: code, ExpiresAt: s.now().UTC().Add(models.OTPWindow)}, nil
}

func (s *AuthService) sendOTP(ctx context.Context, user *models.User, otp models.OTP) error {
	msg, err := notifier.OTPMessage(user.Email, otp.Code, models.OTPWindow)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to render email", err)
	}
	if err := s.deliver(ctx, msg); err != nil {
		s.log.Warn(ctx, "otp not delivered", "user_id", user.ID)
		return err
	}
	return nil
}

func (s *AuthService) deliver(ctx context.Context, msg notifier.Message) error {
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "notification failed", "subject", msg.Subject, "error", err)
		return apperror.Wrap(apperror.KindNotifierFailure, "failed to send email", err)
	}
	return nil
}

// burnVerify runs a verify against a throwaway hash so that a login for an
// unknown email costs about the same as one with a wrong password.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equalizer")
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func buildMagicLinkURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
