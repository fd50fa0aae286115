package models

import (
	"time"

	"github.com/google/uuid"
)

// SwapStatus — статус предложения обмена
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusRejected  SwapStatus = "rejected"
	SwapStatusCanceled  SwapStatus = "canceled"
	SwapStatusWithdrawn SwapStatus = "withdrawn"
)

// SwapAction — действие над предложением обмена
type SwapAction string

const (
	SwapActionAccept   SwapAction = "accept"
	SwapActionReject   SwapAction = "reject"
	SwapActionCancel   SwapAction = "cancel"
	SwapActionWithdraw SwapAction = "withdraw"
)

// swapTransitions — таблица переходов: текущий статус × действие → новый статус.
// Отсутствие записи означает недопустимый переход.
var swapTransitions = map[SwapStatus]map[SwapAction]SwapStatus{
	SwapStatusPending: {
		SwapActionAccept: SwapStatusAccepted,
		SwapActionReject: SwapStatusRejected,
		SwapActionCancel: SwapStatusCanceled,
	},
	SwapStatusAccepted: {
		SwapActionWithdraw: SwapStatusWithdrawn,
	},
}

// NextSwapStatus возвращает статус после применения действия
// или false, если переход недопустим
func NextSwapStatus(from SwapStatus, action SwapAction) (SwapStatus, bool) {
	next, ok := swapTransitions[from][action]
	return next, ok
}

// IsTerminal сообщает, является ли статус конечным
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusRejected || s == SwapStatusCanceled || s == SwapStatusWithdrawn
}

// Swap представляет предложение обмена вещи на вещь
type Swap struct {
	ID              uuid.UUID  `json:"id"`
	FromUserID      uuid.UUID  `json:"from_user_id"`
	ToUserID        uuid.UUID  `json:"to_user_id"`
	OfferedItemID   uuid.UUID  `json:"offered_item_id"`
	RequestedItemID uuid.UUID  `json:"requested_item_id"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	OfferedItem   *Item    `json:"offered_item,omitempty"`
	RequestedItem *Item    `json:"requested_item,omitempty"`
	From          *Profile `json:"from,omitempty"`
	To            *Profile `json:"to,omitempty"`
}

// IsParty сообщает, является ли пользователь стороной обмена
func (s *Swap) IsParty(userID uuid.UUID) bool {
	return s.FromUserID == userID || s.ToUserID == userID
}
