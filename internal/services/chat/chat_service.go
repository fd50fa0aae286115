package chat

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/middleware"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/utils"
)

// ChatService представляет HTTP-сервис переписки по обменам
type ChatService struct {
	cfg        *config.Config
	manager    *Manager
	repo       *repo.Repository
	jwtService *utils.JWTService
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(cfg *config.Config, r *repo.Repository) *ChatService {
	return &ChatService{
		cfg:        cfg,
		manager:    NewManager(r),
		repo:       r,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// Manager возвращает ядро переписки
func (s *ChatService) Manager() *Manager {
	return s.manager
}

// GetConversations возвращает список переписок пользователя
func (s *ChatService) GetConversations(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	conversations, err := s.manager.Conversations(c.Context(), callerID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Прикрепляем профиль собеседника и последнее сообщение
	profiles, err := s.repo.Profiles(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	msgs, err := s.repo.Messages(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}

	type conversationEntry struct {
		models.Swap
		OtherParty  *models.Profile `json:"other_party,omitempty"`
		LastMessage *models.Message `json:"last_message,omitempty"`
	}

	entries := make([]conversationEntry, 0, len(conversations))
	for _, sw := range conversations {
		entry := conversationEntry{Swap: sw}

		otherID := sw.FromUserID
		if otherID == callerID {
			otherID = sw.ToUserID
		}
		if p, ok := profiles[otherID.String()]; ok {
			entry.OtherParty = &p
		}

		if log := msgs[sw.ID.String()]; len(log) > 0 {
			last := log[len(log)-1]
			entry.LastMessage = &last
		}

		entries = append(entries, entry)
	}

	return c.JSON(fiber.Map{
		"conversations": entries,
		"count":         len(entries),
	})
}

// GetMessages возвращает журнал сообщений обмена
func (s *ChatService) GetMessages(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	swapID, err := uuid.Parse(c.Params("swapId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID обмена"})
	}

	messages, err := s.manager.List(c.Context(), swapID, callerID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage отправляет новое сообщение в переписку
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	swapID, err := uuid.Parse(c.Params("swapId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID обмена"})
	}

	// Получаем данные запроса
	var requestData struct {
		Text string `json:"text"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	msg, err := s.manager.Post(c.Context(), swapID, callerID, requestData.Text)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}
