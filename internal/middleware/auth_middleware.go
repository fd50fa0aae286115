package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/utils"
)

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Проверяем Bearer токен
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		tokenString := parts[1]
		userID, err := jwtService.ExtractUserID(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Проверяем, что userID является валидным UUID
		_, err = uuid.Parse(userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid user ID",
			})
		}

		// Добавляем userID в контекст
		c.Locals("userID", userID)

		return c.Next()
	}
}

// CallerID извлекает идентификатор аутентифицированного пользователя из контекста
func CallerID(c fiber.Ctx) (uuid.UUID, error) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Пользователь не авторизован")
	}
	return uuid.Parse(userID)
}
