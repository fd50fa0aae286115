package store

import "context"

// Имена коллекций хранилища. Четыре коллекции ядра плюс коллекция
// учетных данных, принадлежащая провайдеру идентификации.
const (
	CollectionItems    = "items"
	CollectionSwaps    = "swaps"
	CollectionMessages = "messages"
	CollectionProfiles = "profiles"
	CollectionAuth     = "auth_users"
)

// Store — долговременное хранилище коллекций. Контракт: Get возвращает
// снимок коллекции целиком, Set атомарно заменяет коллекцию целиком.
// Индексов и запросов нет — вся фильтрация выполняется в ядре.
//
// Согласованность инвариантов (блокировка вещи ↔ статус обмена)
// обеспечивается порядком операций внутри каждой функции ядра и
// рассчитана на одного логического писателя. Для развертывания с
// несколькими писателями потребуется версионирование сущностей
// (compare-and-swap при записи).
type Store interface {
	// Get десериализует текущий снимок коллекции в out.
	// Отсутствующая коллекция считается пустой и не является ошибкой.
	Get(ctx context.Context, collection string, out any) error

	// Set атомарно заменяет содержимое коллекции
	Set(ctx context.Context, collection string, value any) error
}
