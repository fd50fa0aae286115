package badge

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swaphub/swaphub-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API значков
func (s *BadgeService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/badges")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetBadges)
}
