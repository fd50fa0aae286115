package models

import (
	"time"

	"github.com/google/uuid"
)

// Message представляет сообщение в переписке по обмену.
// Сообщения никогда не изменяются и не удаляются; порядок определяется
// позицией в журнале, а не меткой времени.
type Message struct {
	FromUserID uuid.UUID `json:"from_user_id"`
	Text       string    `json:"text"`
	Ts         time.Time `json:"ts"`

	// Дополнительные поля для API
	From *Profile `json:"from,omitempty"`
}
