package swap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
)

// Engine — машина состояний предложений обмена и связанный с ней
// протокол блокировки вещей. Хранилище не транзакционно, поэтому
// каждая операция сначала выполняет все проверки и только затем пишет:
// неудачная операция не оставляет частичных изменений.
type Engine struct {
	repo *repo.Repository
}

// NewEngine создает движок обменов поверх репозитория
func NewEngine(r *repo.Repository) *Engine {
	return &Engine{repo: r}
}

// Propose создает предложение обмена и блокирует предлагаемую вещь.
// Запрашиваемая вещь намеренно не блокируется: одна вещь может получать
// несколько ожидающих предложений от разных пользователей, и только
// принятие фиксирует блокировку.
func (e *Engine) Propose(ctx context.Context, fromUserID, offeredItemID, requestedItemID uuid.UUID) (*models.Swap, error) {
	items, err := e.repo.Items(ctx)
	if err != nil {
		return nil, err
	}

	offered := findItem(items, offeredItemID)
	requested := findItem(items, requestedItemID)
	if offered == nil || requested == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Вещь не найдена")
	}

	if offered.OwnerID != fromUserID {
		return nil, apperr.New(apperr.CodeForbidden, "Предлагать можно только свои вещи")
	}
	if requested.OwnerID == fromUserID {
		return nil, apperr.New(apperr.CodeInvalidSwap, "Нельзя обменяться со своей же вещью")
	}
	if offered.Status != models.ItemStatusActive {
		return nil, apperr.New(apperr.CodeItemUnavailable, "Вещь уже заблокирована в другом обмене. Выберите другую")
	}

	now := time.Now().UTC()
	swap := models.Swap{
		ID:              uuid.New(),
		FromUserID:      fromUserID,
		ToUserID:        requested.OwnerID,
		OfferedItemID:   offeredItemID,
		RequestedItemID: requestedItemID,
		Status:          models.SwapStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	swaps, err := e.repo.Swaps(ctx)
	if err != nil {
		return nil, err
	}
	swaps = append(swaps, swap)
	if err := e.repo.SaveSwaps(ctx, swaps); err != nil {
		return nil, err
	}

	lockItem(items, offeredItemID, swap.ID)
	if err := e.repo.SaveItems(ctx, items); err != nil {
		return nil, err
	}

	return &swap, nil
}

// Accept принимает предложение: блокирует запрашиваемую вещь, переводит
// обмен в accepted и создает пустой журнал сообщений. Другие ожидающие
// предложения на ту же вещь остаются pending — их никто не отклоняет
// автоматически, хотя удовлетворить их уже нельзя.
func (e *Engine) Accept(ctx context.Context, swapID, actingUserID uuid.UUID) (*models.Swap, error) {
	swap, swaps, err := e.repo.SwapByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Предложение обмена не найдено")
	}
	if swap.ToUserID != actingUserID {
		return nil, apperr.New(apperr.CodeForbidden, "Принять предложение может только его получатель")
	}

	next, ok := models.NextSwapStatus(swap.Status, models.SwapActionAccept)
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidState, "Предложение уже не находится в ожидании")
	}

	items, err := e.repo.Items(ctx)
	if err != nil {
		return nil, err
	}

	// Сначала блокировка запрашиваемой вещи, затем смена статуса:
	// при сбое между записями вещь удерживается, но обмен остается pending
	// и может быть разрешен повторно
	lockItem(items, swap.RequestedItemID, swap.ID)
	if err := e.repo.SaveItems(ctx, items); err != nil {
		return nil, err
	}

	swap.Status = next
	swap.UpdatedAt = time.Now().UTC()
	if err := e.repo.SaveSwaps(ctx, swaps); err != nil {
		return nil, err
	}

	// Инициализируем пустой журнал сообщений для принятого обмена
	msgs, err := e.repo.Messages(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := msgs[swap.ID.String()]; !exists {
		msgs[swap.ID.String()] = []models.Message{}
		if err := e.repo.SaveMessages(ctx, msgs); err != nil {
			return nil, err
		}
	}

	return swap, nil
}

// Reject отклоняет ожидающее предложение и освобождает предлагаемую вещь
func (e *Engine) Reject(ctx context.Context, swapID, actingUserID uuid.UUID) (*models.Swap, error) {
	return e.resolvePending(ctx, swapID, actingUserID, models.SwapActionReject)
}

// Cancel отменяет ожидающее предложение и освобождает предлагаемую вещь
func (e *Engine) Cancel(ctx context.Context, swapID, actingUserID uuid.UUID) (*models.Swap, error) {
	return e.resolvePending(ctx, swapID, actingUserID, models.SwapActionCancel)
}

// resolvePending — общий путь reject/cancel: переход из pending в
// терминальный статус с освобождением предлагаемой вещи
func (e *Engine) resolvePending(ctx context.Context, swapID, actingUserID uuid.UUID, action models.SwapAction) (*models.Swap, error) {
	swap, swaps, err := e.repo.SwapByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Предложение обмена не найдено")
	}

	switch action {
	case models.SwapActionReject:
		if swap.ToUserID != actingUserID {
			return nil, apperr.New(apperr.CodeForbidden, "Отклонить предложение может только его получатель")
		}
	case models.SwapActionCancel:
		if swap.FromUserID != actingUserID {
			return nil, apperr.New(apperr.CodeForbidden, "Отменить предложение может только его отправитель")
		}
	}

	next, ok := models.NextSwapStatus(swap.Status, action)
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidState, "Предложение уже не находится в ожидании")
	}

	swap.Status = next
	swap.UpdatedAt = time.Now().UTC()
	if err := e.repo.SaveSwaps(ctx, swaps); err != nil {
		return nil, err
	}

	items, err := e.repo.Items(ctx)
	if err != nil {
		return nil, err
	}
	unlockItem(items, swap.OfferedItemID, swap.ID)
	if err := e.repo.SaveItems(ctx, items); err != nil {
		return nil, err
	}

	return swap, nil
}

// Withdraw выходит из принятого обмена и освобождает обе вещи
func (e *Engine) Withdraw(ctx context.Context, swapID, actingUserID uuid.UUID) (*models.Swap, error) {
	swap, swaps, err := e.repo.SwapByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Предложение обмена не найдено")
	}
	if swap.FromUserID != actingUserID {
		return nil, apperr.New(apperr.CodeForbidden, "Выйти из обмена может только его отправитель")
	}

	next, ok := models.NextSwapStatus(swap.Status, models.SwapActionWithdraw)
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidState, "Выйти можно только из принятого обмена")
	}

	swap.Status = next
	swap.UpdatedAt = time.Now().UTC()
	if err := e.repo.SaveSwaps(ctx, swaps); err != nil {
		return nil, err
	}

	items, err := e.repo.Items(ctx)
	if err != nil {
		return nil, err
	}
	unlockItem(items, swap.OfferedItemID, swap.ID)
	unlockItem(items, swap.RequestedItemID, swap.ID)
	if err := e.repo.SaveItems(ctx, items); err != nil {
		return nil, err
	}

	return swap, nil
}

// Resolve применяет действие к обмену от имени пользователя
func (e *Engine) Resolve(ctx context.Context, swapID, actingUserID uuid.UUID, action models.SwapAction) (*models.Swap, error) {
	switch action {
	case models.SwapActionAccept:
		return e.Accept(ctx, swapID, actingUserID)
	case models.SwapActionReject:
		return e.Reject(ctx, swapID, actingUserID)
	case models.SwapActionCancel:
		return e.Cancel(ctx, swapID, actingUserID)
	case models.SwapActionWithdraw:
		return e.Withdraw(ctx, swapID, actingUserID)
	default:
		return nil, apperr.New(apperr.CodeValidation, "Недопустимое действие над предложением обмена")
	}
}

func findItem(items []models.Item, id uuid.UUID) *models.Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// lockItem связывает вещь с обменом
func lockItem(items []models.Item, itemID, swapID uuid.UUID) {
	for i := range items {
		if items[i].ID == itemID {
			id := swapID
			items[i].Status = models.ItemStatusLocked
			items[i].LockedBySwapID = &id
			return
		}
	}
}

// unlockItem освобождает вещь, только если блокировка удерживается именно
// этим обменом: повторное разрешение не снимет блокировку, поставленную
// другим, более поздним обменом на ту же вещь
func unlockItem(items []models.Item, itemID, swapID uuid.UUID) {
	for i := range items {
		if items[i].ID == itemID {
			if items[i].LockedBySwapID != nil && *items[i].LockedBySwapID != swapID {
				return
			}
			items[i].Status = models.ItemStatusActive
			items[i].LockedBySwapID = nil
			return
		}
	}
}
