package models

// Profile представляет локальный профиль аутентифицированного пользователя.
// Создается при регистрации и восстанавливается при каждом успешном входе.
type Profile struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	Email string `json:"email"`
}
