package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swaphub/swaphub-api/internal/apperr"
)

// Postgres хранит каждую коллекцию одной JSONB-строкой таблицы collections.
// Запись коллекции — один UPSERT, поэтому замена коллекции атомарна
// с точки зрения вызывающего.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создает пул соединений и подготавливает таблицу коллекций
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	log.Printf("Подключение к базе данных: %s\n", databaseURL)

	// Создаем контекст с таймаутом для подключения
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Настраиваем конфигурацию пула соединений
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInfrastructure, "Ошибка при разборе URL базы данных", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(connCtx, poolConfig)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInfrastructure, "Ошибка при создании пула соединений", err)
	}

	// Проверяем соединение
	if err = pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.CodeInfrastructure, "Ошибка при проверке соединения", err)
	}

	_, err = pool.Exec(connCtx, `
		CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.CodeInfrastructure, "Ошибка при создании таблицы коллекций", err)
	}

	log.Println("✅ Успешное подключение к базе данных")
	return &Postgres{pool: pool}, nil
}

// Close закрывает пул соединений
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// queryContext возвращает контекст с таймаутом для запросов к базе данных
func queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

// Get читает снимок коллекции
func (p *Postgres) Get(ctx context.Context, collection string, out any) error {
	qCtx, cancel := queryContext(ctx)
	defer cancel()

	var data []byte
	err := p.pool.QueryRow(qCtx, `
		SELECT data FROM collections WHERE name = $1
	`, collection).Scan(&data)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Коллекция еще не создавалась — оставляем нулевое значение
			return nil
		}
		return apperr.Wrap(apperr.CodeInfrastructure, "Ошибка чтения коллекции "+collection, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(apperr.CodeInfrastructure, "Ошибка разбора коллекции "+collection, err)
	}
	return nil
}

// Set заменяет содержимое коллекции одним оператором
func (p *Postgres) Set(ctx context.Context, collection string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperr.Wrap(apperr.CodeInfrastructure, "Ошибка сериализации коллекции "+collection, err)
	}

	qCtx, cancel := queryContext(ctx)
	defer cancel()

	_, err = p.pool.Exec(qCtx, `
		INSERT INTO collections (name, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, collection, data)

	if err != nil {
		return apperr.Wrap(apperr.CodeInfrastructure, "Ошибка записи коллекции "+collection, err)
	}
	return nil
}
