package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swaphub/swaphub-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/register", s.RegisterHandler)
	app.Post("/api/auth/login", s.LoginHandler)
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)

	// Защищенные маршруты
	protected := app.Group("/api")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Post("/auth/logout", s.LogoutHandler)
	protected.Get("/me", s.MeHandler)
}
