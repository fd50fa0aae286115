package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/swaphub/swaphub-api/internal/apperr"
)

// Memory — хранилище коллекций в памяти процесса. Используется в тестах
// и при локальном запуске без базы данных. Get и Set проходят через JSON,
// чтобы вызывающий никогда не держал ссылку на сохраненное состояние.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory создает пустое хранилище в памяти
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get читает снимок коллекции
func (m *Memory) Get(_ context.Context, collection string, out any) error {
	m.mu.RLock()
	raw, ok := m.data[collection]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.CodeInfrastructure, "Ошибка разбора коллекции "+collection, err)
	}
	return nil
}

// Set заменяет содержимое коллекции
func (m *Memory) Set(_ context.Context, collection string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperr.Wrap(apperr.CodeInfrastructure, "Ошибка сериализации коллекции "+collection, err)
	}

	m.mu.Lock()
	m.data[collection] = raw
	m.mu.Unlock()
	return nil
}
