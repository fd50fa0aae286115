package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus — статус вещи в каталоге
type ItemStatus string

const (
	ItemStatusActive ItemStatus = "active"
	ItemStatusLocked ItemStatus = "locked"
)

// MaxImagesPerItem — максимальное количество изображений у вещи
const MaxImagesPerItem = 3

// MaxImageBytes — потолок размера одного изображения (~1.5 MB)
const MaxImageBytes = 3 * 512 * 1024

// MaxLiveItemsPerOwner — лимит живых вещей на одного владельца.
// Заблокированные вещи тоже считаются живыми.
const MaxLiveItemsPerOwner = 3

// Item представляет вещь, выставленную на обмен
type Item struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Condition      string     `json:"condition"`
	City           string     `json:"city"`
	Description    string     `json:"description"`
	Images         []ItemImage `json:"images"`
	Status         ItemStatus `json:"status"`
	LockedBySwapID *uuid.UUID `json:"locked_by_swap_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ItemImage представляет ссылку на загруженное изображение вещи
type ItemImage struct {
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
	PublicID   string `json:"public_id,omitempty"`
	Bytes      int64  `json:"bytes"`
}

// IsLockedBy сообщает, удерживается ли вещь именно этим обменом
func (i *Item) IsLockedBy(swapID uuid.UUID) bool {
	return i.Status == ItemStatusLocked && i.LockedBySwapID != nil && *i.LockedBySwapID == swapID
}
