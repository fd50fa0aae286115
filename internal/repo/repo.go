package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/store"
)

// Repository — типизированный доступ к четырем коллекциям хранилища.
// Бизнес-логики здесь нет: только чтение и замена коллекций.
type Repository struct {
	store store.Store
}

// New создает репозиторий поверх хранилища
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// Items возвращает снимок коллекции вещей
func (r *Repository) Items(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := r.store.Get(ctx, store.CollectionItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveItems заменяет коллекцию вещей
func (r *Repository) SaveItems(ctx context.Context, items []models.Item) error {
	return r.store.Set(ctx, store.CollectionItems, items)
}

// ItemByID находит вещь в снимке коллекции
func (r *Repository) ItemByID(ctx context.Context, id uuid.UUID) (*models.Item, []models.Item, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], items, nil
		}
	}
	return nil, items, nil
}

// Swaps возвращает снимок коллекции обменов
func (r *Repository) Swaps(ctx context.Context) ([]models.Swap, error) {
	var swaps []models.Swap
	if err := r.store.Get(ctx, store.CollectionSwaps, &swaps); err != nil {
		return nil, err
	}
	return swaps, nil
}

// SaveSwaps заменяет коллекцию обменов
func (r *Repository) SaveSwaps(ctx context.Context, swaps []models.Swap) error {
	return r.store.Set(ctx, store.CollectionSwaps, swaps)
}

// SwapByID находит обмен в снимке коллекции
func (r *Repository) SwapByID(ctx context.Context, id uuid.UUID) (*models.Swap, []models.Swap, error) {
	swaps, err := r.Swaps(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range swaps {
		if swaps[i].ID == id {
			return &swaps[i], swaps, nil
		}
	}
	return nil, swaps, nil
}

// Messages возвращает журналы сообщений по всем обменам
func (r *Repository) Messages(ctx context.Context) (map[string][]models.Message, error) {
	msgs := make(map[string][]models.Message)
	if err := r.store.Get(ctx, store.CollectionMessages, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = make(map[string][]models.Message)
	}
	return msgs, nil
}

// SaveMessages заменяет коллекцию журналов сообщений
func (r *Repository) SaveMessages(ctx context.Context, msgs map[string][]models.Message) error {
	return r.store.Set(ctx, store.CollectionMessages, msgs)
}

// Profiles возвращает профили пользователей по идентификаторам
func (r *Repository) Profiles(ctx context.Context) (map[string]models.Profile, error) {
	profiles := make(map[string]models.Profile)
	if err := r.store.Get(ctx, store.CollectionProfiles, &profiles); err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = make(map[string]models.Profile)
	}
	return profiles, nil
}

// SaveProfiles заменяет коллекцию профилей
func (r *Repository) SaveProfiles(ctx context.Context, profiles map[string]models.Profile) error {
	return r.store.Set(ctx, store.CollectionProfiles, profiles)
}

// ProfileByID возвращает профиль пользователя или nil
func (r *Repository) ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profiles, err := r.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := profiles[id.String()]; ok {
		return &p, nil
	}
	return nil, nil
}
