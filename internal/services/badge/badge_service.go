package badge

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/middleware"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/utils"
)

// BadgeService — счетчики для значков навигации. Чистая проекция над
// состоянием обменов и переписки, собственного хранилища нет.
type BadgeService struct {
	cfg        *config.Config
	repo       *repo.Repository
	jwtService *utils.JWTService
}

// NewBadgeService создает новый экземпляр BadgeService
func NewBadgeService(cfg *config.Config, r *repo.Repository) *BadgeService {
	return &BadgeService{
		cfg:        cfg,
		repo:       r,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// PendingIncomingCount — количество входящих предложений в ожидании
func (s *BadgeService) PendingIncomingCount(ctx context.Context, userID uuid.UUID) (int, error) {
	swaps, err := s.repo.Swaps(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sw := range swaps {
		if sw.ToUserID == userID && sw.Status == models.SwapStatusPending {
			count++
		}
	}
	return count, nil
}

// UnreadCount — количество принятых переписок, где последнее сообщение
// отправлено не пользователем. Поштучного учета прочтения нет:
// «непрочитано» — это ровно «последним написал собеседник».
func (s *BadgeService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	swaps, err := s.repo.Swaps(ctx)
	if err != nil {
		return 0, err
	}
	msgs, err := s.repo.Messages(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sw := range swaps {
		if sw.Status != models.SwapStatusAccepted || !sw.IsParty(userID) {
			continue
		}
		log := msgs[sw.ID.String()]
		if len(log) == 0 {
			continue
		}
		if log[len(log)-1].FromUserID != userID {
			count++
		}
	}
	return count, nil
}

// GetBadges возвращает оба счетчика одним ответом
func (s *BadgeService) GetBadges(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	pending, err := s.PendingIncomingCount(c.Context(), callerID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	unread, err := s.UnreadCount(c.Context(), callerID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"pending_incoming": pending,
		"unread":           unread,
	})
}
