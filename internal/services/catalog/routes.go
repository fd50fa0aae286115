package catalog

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swaphub/swaphub-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API каталога
func (s *CatalogService) SetupRoutes(app *fiber.App) {
	// Публичная витрина
	app.Get("/api/listings", s.GetPublicListings)

	// Группа для API вещей
	api := app.Group("/api/items")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения своих вещей
	api.Get("/", s.GetMyItems)

	// Маршрут для публикации вещи
	api.Post("/", s.CreateItem)

	// Маршрут для удаления вещи
	api.Delete("/:id", s.DeleteItem)
}
