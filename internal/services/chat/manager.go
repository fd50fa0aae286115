package chat

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

// Manager — переписка по обменам. Журнал сообщений существует только у
// принятого обмена; сообщения дописываются в конец и никогда не меняются.
type Manager struct {
	repo *repo.Repository
}

// NewManager создает менеджер переписки поверх репозитория
func NewManager(r *repo.Repository) *Manager {
	return &Manager{repo: r}
}

// Post добавляет сообщение в журнал принятого обмена и обновляет
// updatedAt обмена
func (m *Manager) Post(ctx context.Context, swapID, senderID uuid.UUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.CodeValidation, "Текст сообщения не может быть пустым")
	}

	swap, swaps, err := m.repo.SwapByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Обмен не найден")
	}
	if !swap.IsParty(senderID) {
		return nil, apperr.New(apperr.CodeForbidden, "У вас нет доступа к этой переписке")
	}
	if swap.Status != models.SwapStatusAccepted {
		return nil, apperr.New(apperr.CodeNotAccepted, "Переписка доступна только по принятому обмену")
	}

	msg := models.Message{
		FromUserID: senderID,
		Text:       text,
		Ts:         time.Now().UTC(),
	}

	msgs, err := m.repo.Messages(ctx)
	if err != nil {
		return nil, err
	}
	msgs[swapID.String()] = append(msgs[swapID.String()], msg)
	if err := m.repo.SaveMessages(ctx, msgs); err != nil {
		return nil, err
	}

	swap.UpdatedAt = msg.Ts
	if err := m.repo.SaveSwaps(ctx, swaps); err != nil {
		return nil, err
	}

	return &msg, nil
}

// List возвращает полный журнал сообщений обмена в порядке добавления
func (m *Manager) List(ctx context.Context, swapID, callerID uuid.UUID) ([]models.Message, error) {
	swap, _, err := m.repo.SwapByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Обмен не найден")
	}
	if !swap.IsParty(callerID) {
		return nil, apperr.New(apperr.CodeForbidden, "У вас нет доступа к этой переписке")
	}

	msgs, err := m.repo.Messages(ctx)
	if err != nil {
		return nil, err
	}

	log, ok := msgs[swapID.String()]
	if !ok {
		log = []models.Message{}
	}
	return log, nil
}

// Conversations возвращает принятые обмены пользователя,
// последние обновленные первыми
func (m *Manager) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Swap, error) {
	swaps, err := m.repo.Swaps(ctx)
	if err != nil {
		return nil, err
	}

	var conversations []models.Swap
	for _, sw := range swaps {
		if sw.Status == models.SwapStatusAccepted && sw.IsParty(userID) {
			conversations = append(conversations, sw)
		}
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}
