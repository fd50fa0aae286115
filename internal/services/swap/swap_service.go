package swap

import (
	"context"
	"log"
	"sort"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/middleware"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/utils"
)

// SwapService представляет HTTP-сервис предложений обмена
type SwapService struct {
	cfg        *config.Config
	engine     *Engine
	repo       *repo.Repository
	jwtService *utils.JWTService
}

// NewSwapService создает новый экземпляр SwapService
func NewSwapService(cfg *config.Config, r *repo.Repository) *SwapService {
	return &SwapService{
		cfg:        cfg,
		engine:     NewEngine(r),
		repo:       r,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// Engine возвращает движок обменов
func (s *SwapService) Engine() *Engine {
	return s.engine
}

// CreateSwap создает новое предложение обмена
func (s *SwapService) CreateSwap(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	// Извлекаем данные из запроса
	var requestData struct {
		OfferedItemID   string `json:"offered_item_id"`
		RequestedItemID string `json:"requested_item_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.OfferedItemID == "" || requestData.RequestedItemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Необходимо указать ID вещей для обмена"})
	}

	offeredItemID, err := uuid.Parse(requestData.OfferedItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предлагаемой вещи"})
	}

	requestedItemID, err := uuid.Parse(requestData.RequestedItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID запрашиваемой вещи"})
	}

	swap, err := s.engine.Propose(c.Context(), callerID, offeredItemID, requestedItemID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"swap_id": swap.ID,
		"message": "Предложение обмена успешно создано",
	})
}

// GetMySwaps возвращает список входящих и исходящих предложений обмена
func (s *SwapService) GetMySwaps(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	// Получаем тип предложений (входящие/исходящие/все)
	swapType := c.Query("type", "all")  // all, incoming, outgoing
	status := c.Query("status", "all")  // all, pending, accepted, rejected, canceled, withdrawn

	swaps, err := s.repo.Swaps(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}

	var filtered []models.Swap
	for _, sw := range swaps {
		switch swapType {
		case "incoming":
			if sw.ToUserID != callerID {
				continue
			}
		case "outgoing":
			if sw.FromUserID != callerID {
				continue
			}
		default:
			if !sw.IsParty(callerID) {
				continue
			}
		}
		if status != "all" && sw.Status != models.SwapStatus(status) {
			continue
		}
		filtered = append(filtered, sw)
	}

	// Новые предложения первыми
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	// Загружаем дополнительную информацию о вещах и пользователях
	for i := range filtered {
		s.enrichSwap(c.Context(), &filtered[i])
	}

	return c.JSON(fiber.Map{
		"swaps": filtered,
		"count": len(filtered),
	})
}

// UpdateSwapStatus разрешает предложение обмена (принятие/отклонение/отмена/выход)
func (s *SwapService) UpdateSwapStatus(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения обмена"})
	}

	// Получаем новый статус из запроса
	var requestData struct {
		Status string `json:"status"` // accepted, rejected, canceled, withdrawn
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	var action models.SwapAction
	switch models.SwapStatus(requestData.Status) {
	case models.SwapStatusAccepted:
		action = models.SwapActionAccept
	case models.SwapStatusRejected:
		action = models.SwapActionReject
	case models.SwapStatusCanceled:
		action = models.SwapActionCancel
	case models.SwapStatusWithdrawn:
		action = models.SwapActionWithdraw
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус предложения обмена"})
	}

	swap, err := s.engine.Resolve(c.Context(), swapID, callerID, action)
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Формируем сообщение в зависимости от нового статуса
	var message string
	switch swap.Status {
	case models.SwapStatusAccepted:
		message = "Предложение обмена принято"
	case models.SwapStatusRejected:
		message = "Предложение обмена отклонено"
	case models.SwapStatusCanceled:
		message = "Предложение обмена отменено"
	case models.SwapStatusWithdrawn:
		message = "Вы вышли из обмена, обе вещи снова активны"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"swap_id": swap.ID,
		"status":  swap.Status,
	})
}

// enrichSwap прикрепляет к обмену вещи и профили сторон
func (s *SwapService) enrichSwap(ctx context.Context, sw *models.Swap) {
	offered, _, err := s.repo.ItemByID(ctx, sw.OfferedItemID)
	if err != nil {
		log.Printf("Ошибка получения вещи %s: %v", sw.OfferedItemID, err)
	} else {
		sw.OfferedItem = offered
	}

	requested, _, err := s.repo.ItemByID(ctx, sw.RequestedItemID)
	if err != nil {
		log.Printf("Ошибка получения вещи %s: %v", sw.RequestedItemID, err)
	} else {
		sw.RequestedItem = requested
	}

	from, err := s.repo.ProfileByID(ctx, sw.FromUserID)
	if err != nil {
		log.Printf("Ошибка получения профиля %s: %v", sw.FromUserID, err)
	} else {
		sw.From = from
	}

	to, err := s.repo.ProfileByID(ctx, sw.ToUserID)
	if err != nil {
		log.Printf("Ошибка получения профиля %s: %v", sw.ToUserID, err)
	} else {
		sw.To = to
	}
}
