package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swaphub/swaphub-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API переписки
func (s *ChatService) SetupRoutes(app *fiber.App) {
	// Группа для API переписки
	api := app.Group("/api/chats")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения всех переписок пользователя
	api.Get("/", s.GetConversations)

	// Маршрут для получения сообщений обмена
	api.Get("/:swapId/messages", s.GetMessages)

	// Маршрут для отправки сообщения
	api.Post("/:swapId/messages", s.SendMessage)
}
