package catalog

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/middleware"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/utils"
)

// CatalogService представляет HTTP-сервис каталога вещей
type CatalogService struct {
	cfg        *config.Config
	catalog    *Catalog
	repo       *repo.Repository
	jwtService *utils.JWTService
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(cfg *config.Config, r *repo.Repository) *CatalogService {
	return &CatalogService{
		cfg:        cfg,
		catalog:    NewCatalog(r),
		repo:       r,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// Catalog возвращает ядро каталога
func (s *CatalogService) Catalog() *Catalog {
	return s.catalog
}

// CreateItem обрабатывает публикацию новой вещи
func (s *CatalogService) CreateItem(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	// Извлекаем данные из запроса
	var requestData struct {
		ItemFields
		Images []models.ItemImage `json:"images"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	item, err := s.catalog.Create(c.Context(), callerID, requestData.ItemFields, requestData.Images)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item_id": item.ID,
		"item":    item,
		"message": "Вещь успешно опубликована",
	})
}

// DeleteItem удаляет вещь владельца
func (s *CatalogService) DeleteItem(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID вещи"})
	}

	if err := s.catalog.Delete(c.Context(), callerID, itemID); err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Вещь успешно удалена",
	})
}

// GetMyItems возвращает вещи текущего пользователя
func (s *CatalogService) GetMyItems(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	items, err := s.catalog.ListByOwner(c.Context(), callerID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetPublicListings возвращает витрину вещей с фильтрами просмотра.
// Заблокированные вещи тоже попадают в выдачу — клиент показывает их статус.
func (s *CatalogService) GetPublicListings(c fiber.Ctx) error {
	search := strings.ToLower(strings.TrimSpace(c.Query("q")))
	category := c.Query("category")
	city := c.Query("city")

	var excludeOwner uuid.UUID
	if raw := c.Query("exclude_owner"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID владельца"})
		}
		excludeOwner = parsed
	}

	items, err := s.catalog.Filter(c.Context(), func(it models.Item) bool {
		if excludeOwner != uuid.Nil && it.OwnerID == excludeOwner {
			return false
		}
		if category != "" && it.Category != category {
			return false
		}
		if city != "" && it.City != city {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Title), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			return false
		}
		return true
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Добавляем профили владельцев для карточек
	profiles, err := s.repo.Profiles(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}

	type listingEntry struct {
		models.Item
		Owner *models.Profile `json:"owner,omitempty"`
	}

	listings := make([]listingEntry, 0, len(items))
	for _, it := range items {
		entry := listingEntry{Item: it}
		if p, ok := profiles[it.OwnerID.String()]; ok {
			entry.Owner = &p
		}
		listings = append(listings, entry)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}
