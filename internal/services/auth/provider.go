package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/store"
)

// UserRef — результат успешной аутентификации: стабильный идентификатор и email
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// credential — учетная запись провайдера идентификации.
// Хранится в собственной коллекции провайдера, ключ — email в нижнем регистре.
type credential struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
}

// Provider — встроенный провайдер идентификации: регистрация и вход по
// email и паролю. Подписчики OnAuthChange получают уведомление один раз
// на каждую смену сессии (вход — с UserRef, выход — с nil).
type Provider struct {
	store store.Store

	mu        sync.Mutex
	callbacks []func(*UserRef)
}

// NewProvider создает провайдер идентификации поверх хранилища
func NewProvider(s store.Store) *Provider {
	return &Provider{store: s}
}

// OnAuthChange регистрирует обработчик смены сессии
func (p *Provider) OnAuthChange(fn func(*UserRef)) {
	p.mu.Lock()
	p.callbacks = append(p.callbacks, fn)
	p.mu.Unlock()
}

func (p *Provider) notify(ref *UserRef) {
	p.mu.Lock()
	callbacks := make([]func(*UserRef), len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(ref)
	}
}

func (p *Provider) credentials(ctx context.Context) (map[string]credential, error) {
	creds := make(map[string]credential)
	if err := p.store.Get(ctx, store.CollectionAuth, &creds); err != nil {
		return nil, err
	}
	if creds == nil {
		creds = make(map[string]credential)
	}
	return creds, nil
}

// Register создает новую учетную запись и открывает сессию
func (p *Provider) Register(ctx context.Context, email, password string) (*UserRef, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.New(apperr.CodeAuth, "Некорректный email")
	}
	if len(password) < 6 {
		return nil, apperr.New(apperr.CodeAuth, "Пароль должен содержать не менее 6 символов")
	}

	creds, err := p.credentials(ctx)
	if err != nil {
		return nil, err
	}

	if _, exists := creds[email]; exists {
		return nil, apperr.New(apperr.CodeAuth, "Пользователь с таким email уже зарегистрирован")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInfrastructure, "Ошибка хеширования пароля", err)
	}

	cred := credential{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	creds[email] = cred

	if err := p.store.Set(ctx, store.CollectionAuth, creds); err != nil {
		return nil, err
	}

	ref := &UserRef{ID: cred.ID, Email: cred.Email}
	p.notify(ref)
	return ref, nil
}

// Authenticate проверяет email и пароль и открывает сессию
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*UserRef, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	creds, err := p.credentials(ctx)
	if err != nil {
		return nil, err
	}

	cred, exists := creds[email]
	if !exists {
		return nil, apperr.New(apperr.CodeAuth, "Неверный email или пароль")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.New(apperr.CodeAuth, "Неверный email или пароль")
	}

	ref := &UserRef{ID: cred.ID, Email: cred.Email}
	p.notify(ref)
	return ref, nil
}

// SignOut закрывает сессию
func (p *Provider) SignOut() {
	p.notify(nil)
}

// telegramUserRef строит стабильный UserRef для пользователя Telegram.
// Идентификатор детерминированно выводится из Telegram ID, поэтому
// повторные входы дают тот же UUID.
func telegramUserRef(telegramID int64, username string) *UserRef {
	name := fmt.Sprintf("telegram:%d", telegramID)
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))

	email := ""
	if username != "" {
		email = username + "@telegram.local"
	}
	return &UserRef{ID: id, Email: email}
}
