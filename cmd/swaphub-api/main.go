package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/services/auth"
	"github.com/swaphub/swaphub-api/internal/services/badge"
	"github.com/swaphub/swaphub-api/internal/services/catalog"
	"github.com/swaphub/swaphub-api/internal/services/chat"
	"github.com/swaphub/swaphub-api/internal/services/cloudinary"
	"github.com/swaphub/swaphub-api/internal/services/swap"
	"github.com/swaphub/swaphub-api/internal/store"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем хранилище
	var st store.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Println("⚠️ Используется хранилище в памяти: данные не переживут перезапуск")
		st = store.NewMemory()
	default:
		pg, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Ошибка при инициализации хранилища: %v", err)
		}
		defer pg.Close()
		st = pg
	}

	repository := repo.New(st)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "SwapHub API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	provider := auth.NewProvider(st)
	authService := auth.NewAuthService(cfg, provider, repository)
	catalogService := catalog.NewCatalogService(cfg, repository)
	swapService := swap.NewSwapService(cfg, repository)
	chatService := chat.NewChatService(cfg, repository)
	badgeService := badge.NewBadgeService(cfg, repository)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	catalogService.SetupRoutes(app)
	swapService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	badgeService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)

	// Запускаем сервер
	log.Printf("✅ SwapHub API запущен на %s", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
