package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// Code — код ошибки предметной области
type Code string

const (
	CodeValidation      Code = "validation_error"
	CodeForbidden       Code = "forbidden"
	CodeInvalidState    Code = "invalid_state"
	CodeInvalidSwap     Code = "invalid_swap"
	CodeLimitExceeded   Code = "limit_exceeded"
	CodeItemUnavailable Code = "item_unavailable"
	CodeItemLocked      Code = "item_locked"
	CodePayloadTooLarge Code = "payload_too_large"
	CodeNotAccepted     Code = "not_accepted"
	CodeAuth            Code = "auth_error"
	CodeNotFound        Code = "not_found"
	CodeInfrastructure  Code = "infrastructure_error"
)

// Error — типизированная ошибка, пересекающая границу ядра.
// Операция, вернувшая такую ошибку, не изменила сохраненное состояние.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New создает ошибку с заданным кодом и сообщением
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap оборачивает причину ошибкой инфраструктуры
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is сообщает, несет ли ошибка заданный код
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// httpStatus — соответствие кодов ошибок HTTP-статусам
var httpStatus = map[Code]int{
	CodeValidation:      fiber.StatusBadRequest,
	CodeInvalidSwap:     fiber.StatusBadRequest,
	CodeAuth:            fiber.StatusUnauthorized,
	CodeForbidden:       fiber.StatusForbidden,
	CodeNotAccepted:     fiber.StatusForbidden,
	CodeNotFound:        fiber.StatusNotFound,
	CodeInvalidState:    fiber.StatusConflict,
	CodeLimitExceeded:   fiber.StatusConflict,
	CodeItemUnavailable: fiber.StatusConflict,
	CodeItemLocked:      fiber.StatusConflict,
	CodePayloadTooLarge: fiber.StatusRequestEntityTooLarge,
	CodeInfrastructure:  fiber.StatusInternalServerError,
}

// Respond преобразует ошибку ядра в JSON-ответ Fiber
func Respond(c fiber.Ctx, err error) error {
	var e *Error
	if errors.As(err, &e) {
		status, ok := httpStatus[e.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{"error": e.Message, "code": string(e.Code)})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
}
