package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/authcore/internal/middleware"
	"github.com/example/authcore/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	svc *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type signupRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	IsIndividual    *bool  `json:"isIndividual"`
}

// Signup creates a pending account and emails its verification code.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.Signup(c.UserContext(), services.SignupInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		IsIndividual:    req.IsIndividual,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "OTP sent to your email for verification.",
		"token":   res.Token,
		"user":    res.User,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"token":  res.Token,
		"user":   res.User,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	// OTP is accepted as an alias of Code.
	OTP string `json:"otp"`
}

// VerifyOTP handles email verification by code.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	code := req.Code
	if code == "" {
		code = req.OTP
	}

	if err := h.svc.VerifyOTP(c.UserContext(), req.Email, code); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Email verified successfully",
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.ResendOTP(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "New OTP sent to your email",
	})
}

// ForgotPassword returns a password-reset token in the response body.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.svc.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":     "success",
		"message":    "Token sent to email",
		"resetToken": token,
	})
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := h.svc.ResetPassword(c.UserContext(), services.ResetPasswordInput{
		Token:           req.Token,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password has been reset",
	})
}

func (h *AuthHandler) SendMagicLink(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.SendMagicLink(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Magic link sent to your email",
	})
}

// VerifyMagicLink exchanges the ?token= query value for a session token.
func (h *AuthHandler) VerifyMagicLink(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	session, err := h.svc.VerifyMagicLink(c.UserContext(), token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":       "success",
		"message":      "Authentication successful",
		"sessionToken": session,
	})
}

// Me returns the account behind the session token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := middleware.GetSessionClaims(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.svc.CurrentUser(c.UserContext(), claims)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"user":   user,
	})
}
