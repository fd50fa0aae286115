package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService отвечает за создание и валидацию JWT токенов
type JWTService struct {
	secretKey string
}

// NewJWTService создаёт новый экземпляр JWTService
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{secretKey: secretKey}
}

// GenerateToken создаёт JWT токен для пользователя
func (s *JWTService) GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken проверяет JWT токен
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
}

// ExtractUserID извлекает идентификатор пользователя из токена
func (s *JWTService) ExtractUserID(tokenString string) (string, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("невалидный токен")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("токен не содержит идентификатор пользователя")
	}

	return userID, nil
}
