package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/authcore/internal/handlers"
	"github.com/example/authcore/internal/middleware"
	"github.com/example/authcore/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, authService *services.AuthService) {
	authHandler := handlers.NewAuthHandler(authService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running")
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/send-magic-link", authHandler.SendMagicLink)
	auth.Get("/verify", authHandler.VerifyMagicLink)
	auth.Get("/me", middleware.RequireSession(authService), authHandler.Me)
}
