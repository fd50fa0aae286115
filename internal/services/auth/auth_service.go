package auth

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/middleware"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/utils"
)

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	provider   *Provider
	repo       *repo.Repository
	jwtService *utils.JWTService
}

// NewAuthService – конструктор AuthService. Регистрирует восстановление
// профиля как обработчик смены сессии: отсутствующий профиль пересоздается
// при каждом успешном входе.
func NewAuthService(cfg *config.Config, provider *Provider, r *repo.Repository) *AuthService {
	s := &AuthService{
		cfg:        cfg,
		provider:   provider,
		repo:       r,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}

	provider.OnAuthChange(func(ref *UserRef) {
		if ref == nil {
			return
		}
		if err := s.healProfile(context.Background(), ref); err != nil {
			log.Printf("Ошибка восстановления профиля %s: %v", ref.ID, err)
		}
	})

	return s
}

// GetJWTService возвращает сервис JWT для middleware
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// healProfile — идемпотентный upsert профиля: создает профиль с данными
// по умолчанию, если его нет, и синхронизирует email, если он есть
func (s *AuthService) healProfile(ctx context.Context, ref *UserRef) error {
	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return err
	}

	key := ref.ID.String()
	profile, exists := profiles[key]
	if !exists {
		fallbackName := "User"
		if ref.Email != "" {
			fallbackName = strings.SplitN(ref.Email, "@", 2)[0]
		}
		profile = models.Profile{Name: fallbackName, City: "Winnipeg", Email: ref.Email}
	} else if ref.Email != "" {
		profile.Email = ref.Email
	}

	profiles[key] = profile
	return s.repo.SaveProfiles(ctx, profiles)
}

// upsertProfile сохраняет профиль пользователя с переданными полями
func (s *AuthService) upsertProfile(ctx context.Context, ref *UserRef, name, city string) error {
	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return err
	}
	profiles[ref.ID.String()] = models.Profile{Name: name, City: city, Email: ref.Email}
	return s.repo.SaveProfiles(ctx, profiles)
}

// RegisterHandler создает учетную запись, профиль и выдает JWT
func (s *AuthService) RegisterHandler(c fiber.Ctx) error {
	var payload struct {
		Name     string `json:"name"`
		City     string `json:"city"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.City = strings.TrimSpace(payload.City)
	if payload.Name == "" || payload.City == "" {
		return apperr.Respond(c, apperr.New(apperr.CodeValidation, "Укажите имя и город"))
	}

	ref, err := s.provider.Register(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Профиль с данными регистрации поверх созданного обработчиком входа
	if err := s.upsertProfile(c.Context(), ref, payload.Name, payload.City); err != nil {
		log.Printf("Ошибка сохранения профиля %s: %v", ref.ID, err)
		return apperr.Respond(c, err)
	}

	return s.respondWithToken(c, ref, fiber.StatusCreated)
}

// LoginHandler проверяет учетные данные и выдает JWT
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ref, err := s.provider.Authenticate(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return s.respondWithToken(c, ref, fiber.StatusOK)
}

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	if s.cfg.TelegramBotToken == "" {
		return apperr.Respond(c, apperr.New(apperr.CodeAuth, "Вход через Telegram не настроен"))
	}

	// Проверяем initData
	expiration := 24 * time.Hour
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Telegram data"})
	}

	// Парсим данные
	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to parse initData"})
	}

	ref := telegramUserRef(data.User.ID, data.User.Username)

	// Профиль из данных Telegram, затем восстановление недостающего
	name := strings.TrimSpace(data.User.FirstName + " " + data.User.LastName)
	if name == "" {
		name = data.User.Username
	}
	if err := s.upsertProfile(c.Context(), ref, name, ""); err != nil {
		log.Printf("Ошибка сохранения профиля %s: %v", ref.ID, err)
		return apperr.Respond(c, err)
	}

	return s.respondWithToken(c, ref, fiber.StatusOK)
}

// LogoutHandler закрывает сессию
func (s *AuthService) LogoutHandler(c fiber.Ctx) error {
	s.provider.SignOut()
	return c.JSON(fiber.Map{"success": true})
}

// MeHandler возвращает профиль текущего пользователя
func (s *AuthService) MeHandler(c fiber.Ctx) error {
	callerID, err := middleware.CallerID(c)
	if err != nil {
		return err
	}

	profile, err := s.repo.ProfileByID(c.Context(), callerID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if profile == nil {
		return apperr.Respond(c, apperr.New(apperr.CodeNotFound, "Профиль не найден"))
	}

	return c.JSON(fiber.Map{
		"id":      callerID,
		"profile": profile,
	})
}

// respondWithToken генерирует JWT и формирует ответ с профилем
func (s *AuthService) respondWithToken(c fiber.Ctx, ref *UserRef, status int) error {
	jwtToken, err := s.jwtService.GenerateToken(ref.ID.String())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate JWT"})
	}

	profile, err := s.repo.ProfileByID(c.Context(), ref.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(status).JSON(fiber.Map{
		"token": jwtToken,
		"user": fiber.Map{
			"id":      ref.ID,
			"email":   ref.Email,
			"profile": profile,
		},
	})
}
