package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
)

// ItemFields — текстовые поля новой вещи
type ItemFields struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	City        string `json:"city"`
	Description string `json:"description"`
}

// Catalog — каталог вещей: создание, удаление и чтение с учетом
// лимита публикаций и статуса блокировки
type Catalog struct {
	repo *repo.Repository
}

// NewCatalog создает каталог поверх репозитория
func NewCatalog(r *repo.Repository) *Catalog {
	return &Catalog{repo: r}
}

// Create публикует новую вещь. Никакое состояние не записывается,
// пока не пройдены все проверки.
func (cat *Catalog) Create(ctx context.Context, ownerID uuid.UUID, fields ItemFields, images []models.ItemImage) (*models.Item, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Category = strings.TrimSpace(fields.Category)
	fields.Condition = strings.TrimSpace(fields.Condition)
	fields.City = strings.TrimSpace(fields.City)
	fields.Description = strings.TrimSpace(fields.Description)

	if fields.Title == "" || fields.Category == "" || fields.Condition == "" ||
		fields.City == "" || fields.Description == "" {
		return nil, apperr.New(apperr.CodeValidation, "Заполните все обязательные поля")
	}

	if len(images) < 1 || len(images) > models.MaxImagesPerItem {
		return nil, apperr.New(apperr.CodeValidation, "Добавьте от 1 до 3 изображений")
	}

	for _, img := range images {
		if img.Bytes > models.MaxImageBytes {
			return nil, apperr.New(apperr.CodePayloadTooLarge, "Одно из изображений слишком большое. Загружайте изображения до ~1.5MB")
		}
	}

	items, err := cat.repo.Items(ctx)
	if err != nil {
		return nil, err
	}

	// Лимит живых вещей: заблокированные тоже считаются
	live := 0
	for _, it := range items {
		if it.OwnerID == ownerID {
			live++
		}
	}
	if live >= models.MaxLiveItemsPerOwner {
		return nil, apperr.New(apperr.CodeLimitExceeded, "Можно опубликовать не более 3 вещей. Удалите одну, чтобы добавить новую")
	}

	item := models.Item{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       fields.Title,
		Category:    fields.Category,
		Condition:   fields.Condition,
		City:        fields.City,
		Description: fields.Description,
		Images:      images,
		Status:      models.ItemStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	items = append(items, item)
	if err := cat.repo.SaveItems(ctx, items); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete безвозвратно удаляет вещь владельца.
// Заблокированную вещь сначала нужно освободить через завершение обмена.
func (cat *Catalog) Delete(ctx context.Context, ownerID, itemID uuid.UUID) error {
	item, items, err := cat.repo.ItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return apperr.New(apperr.CodeNotFound, "Вещь не найдена")
	}
	if item.OwnerID != ownerID {
		return apperr.New(apperr.CodeForbidden, "Удалять можно только свои вещи")
	}
	if item.Status == models.ItemStatusLocked {
		return apperr.New(apperr.CodeItemLocked, "Вещь заблокирована в обмене. Завершите обмен, чтобы удалить её")
	}

	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	return cat.repo.SaveItems(ctx, kept)
}

// ListByOwner возвращает вещи владельца, новые первыми
func (cat *Catalog) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Item, error) {
	return cat.Filter(ctx, func(it models.Item) bool {
		return it.OwnerID == ownerID
	})
}

// ListAll возвращает все вещи, новые первыми
func (cat *Catalog) ListAll(ctx context.Context) ([]models.Item, error) {
	return cat.Filter(ctx, func(models.Item) bool { return true })
}

// Filter возвращает вещи, прошедшие предикат, новые первыми
func (cat *Catalog) Filter(ctx context.Context, keep func(models.Item) bool) ([]models.Item, error) {
	items, err := cat.repo.Items(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Item, 0, len(items))
	for _, it := range items {
		if keep(it) {
			filtered = append(filtered, it)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}
