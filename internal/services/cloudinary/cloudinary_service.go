package cloudinary

import (
	"fmt"
	"net/url"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/gofiber/fiber/v3"

	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/utils"
)

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cfg          *config.Config
	uploadFolder string
	uploadPreset string
	jwtService   *utils.JWTService
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg *config.Config) *CloudinaryService {
	return &CloudinaryService{
		cfg:          cfg,
		uploadFolder: cfg.CloudinaryConfig.UploadFolder,
		uploadPreset: cfg.CloudinaryConfig.UploadPreset,
		jwtService:   utils.NewJWTService(cfg.JWTSecret),
	}
}

// GenerateUploadParams создаёт подписанные параметры для прямой загрузки
// изображений в Cloudinary. Байты изображений через этот API не проходят:
// клиент загружает их напрямую, а каталог проверяет размер по метаданным
// загруженного файла.
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	// Текущий timestamp
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := url.Values{}
	params.Set("timestamp", timestamp)
	if s.uploadPreset != "" {
		params.Set("upload_preset", s.uploadPreset)
	}
	if s.uploadFolder != "" {
		params.Set("folder", s.uploadFolder)
	}

	// Генерируем подпись средствами SDK
	signature, err := api.SignParameters(params, s.cfg.CloudinaryConfig.APISecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации подписи"})
	}

	// Возвращаем параметры
	return c.JSON(fiber.Map{
		"timestamp":     timestamp,
		"signature":     signature,
		"api_key":       s.cfg.CloudinaryConfig.APIKey,
		"cloud_name":    s.cfg.CloudinaryConfig.CloudName,
		"upload_preset": s.uploadPreset,
		"folder":        s.uploadFolder,
	})
}
