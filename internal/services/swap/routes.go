package swap

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swaphub/swaphub-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API обменов
func (s *SwapService) SetupRoutes(app *fiber.App) {
	// Группа для API обменов
	api := app.Group("/api/swaps")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания предложения обмена
	api.Post("/", s.CreateSwap)

	// Маршрут для получения списка предложений обмена
	api.Get("/", s.GetMySwaps)

	// Маршрут для разрешения предложения обмена
	api.Put("/:id/status", s.UpdateSwapStatus)
}
